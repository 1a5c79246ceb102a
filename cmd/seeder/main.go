package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/safe-eats/api/internal/config"
	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/pkg/timeconv"
)

func main() {
	// Load config
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	seedUsers(db)
	seedRecipes(db)

	log.Println("🎉 Seeding completed!")
}

func seedUsers(db *gorm.DB) {
	password := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	log.Println("🌱 Seeding 3 users...")

	for i := 1; i <= 3; i++ {
		email := fmt.Sprintf("user%d@safeeats.local", i)

		var existing model.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			continue
		}

		user := model.User{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("User Number %d", i),
			Email:        email,
			Password:     string(hashedPassword),
			AuthProvider: model.AuthProviderEmail,
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create user %s: %v", email, err)
		} else {
			log.Printf("✅ Created user: %s | Pass: %s", email, password)
		}
	}
}

// seedRecipes creates two demo recipes with one printable QR code each.
// Fixed ids so the codes can be generated once and reused across resets.
func seedRecipes(db *gorm.DB) {
	log.Println("🌱 Seeding demo recipes and QR codes...")

	recipes := []model.Recipe{
		{
			ID:              uuid.MustParse("f62bc609-63d2-47dd-af75-e425d8e82c0a"),
			Name:            "Chicken Alfredo",
			Description:     "Moms' favourite",
			CookingTime:     timeconv.UnitsToMs(10, timeconv.UnitMin),
			ExpiryDate:      timeconv.UnitsToMs(3, timeconv.UnitDay),
			ApplianceType:   model.ApplianceTypeToasterOven,
			Temperature:     325,
			TemperatureUnit: model.TemperatureUnitF,
			ApplianceMode:   model.ApplianceModeConvection,
		},
		{
			ID:              uuid.MustParse("2823da8e-99d5-432f-96aa-bdd345f320b8"),
			Name:            "Steak",
			Description:     "Always tasty",
			CookingTime:     timeconv.UnitsToMs(20, timeconv.UnitMin),
			ExpiryDate:      timeconv.UnitsToMs(5, timeconv.UnitDay),
			ApplianceType:   model.ApplianceTypeToasterOven,
			Temperature:     200,
			TemperatureUnit: model.TemperatureUnitF,
			ApplianceMode:   model.ApplianceModeBake,
		},
	}

	qrCodes := []model.QRCode{
		{
			ID:       uuid.MustParse("bd5b49a9-33c9-48b7-b386-484298cf446a"),
			RecipeID: recipes[0].ID,
		},
		{
			ID:       uuid.MustParse("23520e20-9b12-4251-9dbf-a02a24936858"),
			RecipeID: recipes[1].ID,
		},
	}

	for i := range recipes {
		var count int64
		db.Model(&model.Recipe{}).Where("id = ?", recipes[i].ID).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&recipes[i]).Error; err != nil {
			log.Printf("❌ Failed to create recipe %s: %v", recipes[i].Name, err)
		} else {
			log.Printf("✅ Created recipe: %s", recipes[i].Name)
		}
	}

	for i := range qrCodes {
		var count int64
		db.Model(&model.QRCode{}).Where("id = ?", qrCodes[i].ID).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&qrCodes[i]).Error; err != nil {
			log.Printf("❌ Failed to create QR code %s: %v", qrCodes[i].ID, err)
		} else {
			log.Printf("✅ Created QR code %s -> recipe %s", qrCodes[i].ID, qrCodes[i].RecipeID)
		}
	}
}
