package urban

import (
	"fmt"

	"github.com/kanootoko/urban-api/internal/apperr"
	"gorm.io/gorm"
)

// Kind names an entity kind for referential checks and error reporting.
type Kind string

const (
	KindTerritory          Kind = "territory"
	KindTerritoryType      Kind = "territory type"
	KindPhysicalObjectType Kind = "physical object type"
	KindPhysicalObject     Kind = "physical object"
	KindObjectGeometry     Kind = "object geometry"
	KindService            Kind = "service"
	KindServiceType        Kind = "service type"
	KindLivingBuilding     Kind = "living building"
)

type kindTable struct {
	table string
	pk    string
}

var kindTables = map[Kind]kindTable{
	KindTerritory:          {"urban.territories_data", "territory_id"},
	KindTerritoryType:      {"urban.territory_types_dict", "territory_type_id"},
	KindPhysicalObjectType: {"urban.physical_object_types_dict", "physical_object_type_id"},
	KindPhysicalObject:     {"urban.physical_objects_data", "physical_object_id"},
	KindObjectGeometry:     {"urban.object_geometries_data", "object_geometry_id"},
	KindService:            {"urban.services_data", "service_id"},
	KindServiceType:        {"urban.service_types_dict", "service_type_id"},
	KindLivingBuilding:     {"urban.living_buildings_data", "living_building_id"},
}

// Exists re-checks storage on every call; operations run on a single
// session, so there is no race to cache around.
func Exists(tx *gorm.DB, kind Kind, id int) (bool, error) {
	meta, ok := kindTables[kind]
	if !ok {
		return false, fmt.Errorf("unknown entity kind %q", kind)
	}

	var count int64
	err := tx.Table(meta.table).Where(meta.pk+" = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("existence check for %s %d: %w", kind, id, err)
	}
	return count > 0, nil
}

// Require confirms the referenced entity exists, or fails with a typed
// NotFound. Called before every write that carries a foreign key and
// before every scoped read, so a missing parent is reported as 404
// rather than an empty list.
func Require(tx *gorm.DB, kind Kind, id int) error {
	ok, err := Exists(tx, kind, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound{Kind: string(kind), ID: id}
	}
	return nil
}
