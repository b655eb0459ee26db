package urban

import (
	"log"

	"github.com/kanootoko/urban-api/internal/db"
)

func Init() {
	// Ensure the urban schema exists
	if err := db.EnsureSchema(db.DB, "urban"); err != nil {
		log.Fatal("Failed to ensure schema urban: ", err)
	}

	// Geometry columns need PostGIS
	if err := db.EnsureExtension(db.DB, "postgis"); err != nil {
		log.Fatal("Failed to enable postgis extension: ", err)
	}

	// Auto-migrate all urban models. Dictionaries first, then the tables
	// referencing them.
	if err := db.DB.AutoMigrate(
		&TerritoryType{},
		&Territory{},
		&PhysicalObjectType{},
		&PhysicalObject{},
		&ObjectGeometry{},
		&ServiceType{},
		&Service{},
		&UrbanObject{},
		&LivingBuilding{},
	); err != nil {
		log.Fatal("Failed to auto-migrate urban tables: ", err)
	}

	log.Println("Urban module initialized")
}
