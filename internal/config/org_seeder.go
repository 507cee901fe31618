package config

import (
	"log"

	"campus-orghub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SeedMasterData seeds a demo organization with its role set and a default
// selection pipeline. Safe to run repeatedly.
func SeedMasterData(db *gorm.DB) error {
	org, err := seedDemoOrganization(db)
	if err != nil {
		return err
	}
	if org == nil {
		return nil
	}

	if err := seedRoles(db, org.ID); err != nil {
		return err
	}

	if err := seedPhases(db, org.ID); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedDemoOrganization(db *gorm.DB) (*models.Organization, error) {
	org := models.Organization{
		Name:        "Computer Science Society",
		Description: "Demo organization seeded for development",
		IsActive:    true,
	}

	var existing models.Organization
	err := db.Where("name = ?", org.Name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err := db.Create(&org).Error; err != nil {
		return nil, err
	}
	log.Printf("   Created organization: %s", org.Name)
	return &org, nil
}

func seedRoles(db *gorm.DB, orgID uint) error {
	roles := []models.Role{
		{OrganizationID: orgID, Name: models.DefaultRoleName, Hierarchy: 1},
		{OrganizationID: orgID, Name: "Board", Hierarchy: 5},
		{OrganizationID: orgID, Name: "President", Hierarchy: 10},
	}

	for _, role := range roles {
		var existing models.Role
		if err := db.Where("organization_id = ? AND name = ?", orgID, role.Name).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&role).Error; err != nil {
					return err
				}
				log.Printf("   Created role: %s", role.Name)
			}
		}
	}
	return nil
}

func seedPhases(db *gorm.DB, orgID uint) error {
	phases := []models.Phase{
		{
			OrganizationID: orgID,
			Name:           "Application Review",
			Description:    "Screening of the written application",
			PhaseOrder:     1,
			IsActive:       true,
		},
		{
			OrganizationID: orgID,
			Name:           "Interview",
			Description:    "In-person interview with the board",
			PhaseOrder:     2,
			IsActive:       true,
		},
		{
			OrganizationID: orgID,
			Name:           "Trial Period",
			Description:    "Participation in two project sessions",
			PhaseOrder:     3,
			IsActive:       true,
		},
	}

	for _, phase := range phases {
		var existing models.Phase
		if err := db.Where("organization_id = ? AND phase_order = ?", orgID, phase.PhaseOrder).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&phase).Error; err != nil {
					return err
				}
				log.Printf("   Created phase: %s", phase.Name)
			}
		}
	}
	return nil
}
