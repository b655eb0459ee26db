package urban

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/kanootoko/urban-api/internal/geometry"
)

// JSONB wraps json.RawMessage with Scanner/Valuer for GORM JSONB columns.
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = JSONB("{}")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("unsupported type: %T", value)
	}
	return nil
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.RawMessage(j).MarshalJSON()
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("JSONB: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// TerritoryType is a reference dictionary for territory classification.
type TerritoryType struct {
	TerritoryTypeID int    `gorm:"primaryKey" json:"territory_type_id"`
	Name            string `gorm:"uniqueIndex;not null" json:"name"`
}

func (TerritoryType) TableName() string { return "urban.territory_types_dict" }

// Territory is part of the territory hierarchy. This service only reads
// territories; they are managed by the territory import pipeline.
type Territory struct {
	TerritoryID     int               `gorm:"primaryKey" json:"territory_id"`
	TerritoryTypeID int               `gorm:"not null;index" json:"territory_type_id"`
	ParentID        *int              `json:"parent_id,omitempty"`
	Name            string            `gorm:"not null" json:"name"`
	Geometry        geometry.Geometry `gorm:"type:geometry(Geometry,4326)" json:"geometry"`
	CentrePoint     geometry.Geometry `gorm:"type:geometry(Point,4326)" json:"centre_point"`
	Level           int               `json:"level"`
	Properties      JSONB             `gorm:"type:jsonb;default:'{}'" json:"properties"`
}

func (Territory) TableName() string { return "urban.territories_data" }

// PhysicalObjectType is a reference dictionary; names are unique.
type PhysicalObjectType struct {
	PhysicalObjectTypeID int    `gorm:"primaryKey" json:"physical_object_type_id"`
	Name                 string `gorm:"uniqueIndex;not null" json:"name"`
}

func (PhysicalObjectType) TableName() string { return "urban.physical_object_types_dict" }

// PhysicalObject is a real-world object instance (building, structure).
type PhysicalObject struct {
	PhysicalObjectID     int     `gorm:"primaryKey" json:"physical_object_id"`
	PhysicalObjectTypeID int     `gorm:"not null;index" json:"physical_object_type_id"`
	Name                 *string `json:"name,omitempty"`
	Properties           JSONB   `gorm:"type:jsonb;default:'{}'" json:"properties"`
}

func (PhysicalObject) TableName() string { return "urban.physical_objects_data" }

// ObjectGeometry is a spatial footprint plus centre point, scoped to a
// territory.
type ObjectGeometry struct {
	ObjectGeometryID int               `gorm:"primaryKey" json:"object_geometry_id"`
	TerritoryID      int               `gorm:"not null;index" json:"territory_id"`
	Geometry         geometry.Geometry `gorm:"type:geometry(Geometry,4326);not null" json:"geometry"`
	CentrePoint      geometry.Geometry `gorm:"type:geometry(Point,4326);not null" json:"centre_point"`
	Address          *string           `json:"address,omitempty"`
}

func (ObjectGeometry) TableName() string { return "urban.object_geometries_data" }

// UrbanObject is the junction linking one physical object and one
// geometry, with an optional service. It is the sole path by which
// physical objects, geometries, services and territories become mutually
// discoverable.
type UrbanObject struct {
	UrbanObjectID    int  `gorm:"primaryKey" json:"urban_object_id"`
	PhysicalObjectID int  `gorm:"not null;index" json:"physical_object_id"`
	ObjectGeometryID int  `gorm:"not null;index" json:"object_geometry_id"`
	ServiceID        *int `gorm:"index" json:"service_id,omitempty"`
}

func (UrbanObject) TableName() string { return "urban.urban_objects_data" }

// ServiceType is a reference dictionary for service classification.
type ServiceType struct {
	ServiceTypeID   int    `gorm:"primaryKey" json:"service_type_id"`
	UrbanFunctionID int    `json:"urban_function_id"`
	Name            string `gorm:"uniqueIndex;not null" json:"name"`
	CapacityModeled int    `json:"capacity_modeled"`
	Code            string `json:"code"`
}

func (ServiceType) TableName() string { return "urban.service_types_dict" }

// Service is an amenity operating through an urban object.
type Service struct {
	ServiceID       int     `gorm:"primaryKey" json:"service_id"`
	ServiceTypeID   int     `gorm:"not null;index" json:"service_type_id"`
	TerritoryTypeID int     `gorm:"not null;index" json:"territory_type_id"`
	Name            *string `json:"name,omitempty"`
	CapacityReal    int     `json:"capacity_real"`
	Properties      JSONB   `gorm:"type:jsonb;default:'{}'" json:"properties"`
}

func (Service) TableName() string { return "urban.services_data" }

// LivingBuilding is a one-to-one residential extension of a physical
// object.
type LivingBuilding struct {
	LivingBuildingID int     `gorm:"primaryKey" json:"living_building_id"`
	PhysicalObjectID int     `gorm:"not null;index" json:"physical_object_id"`
	ResidentsNumber  int     `json:"residents_number"`
	LivingArea       float64 `json:"living_area"`
	Properties       JSONB   `gorm:"type:jsonb;default:'{}'" json:"properties"`
}

func (LivingBuilding) TableName() string { return "urban.living_buildings_data" }

// PhysicalObjectRecord is the joined read shape for a physical object.
// Geometry fields are populated only by the with-geometry read paths.
type PhysicalObjectRecord struct {
	PhysicalObjectID       int                `json:"physical_object_id"`
	PhysicalObjectTypeID   int                `json:"physical_object_type_id"`
	PhysicalObjectTypeName string             `json:"physical_object_type_name,omitempty"`
	Name                   *string            `json:"name,omitempty"`
	Address                *string            `json:"address,omitempty"`
	Properties             JSONB              `json:"properties"`
	Geometry               *geometry.Geometry `json:"geometry,omitempty"`
	CentrePoint            *geometry.Geometry `json:"centre_point,omitempty"`
}

// ServiceRecord is the joined read shape for a service.
type ServiceRecord struct {
	ServiceID                  int                `json:"service_id"`
	Name                       *string            `json:"name,omitempty"`
	CapacityReal               int                `json:"capacity_real"`
	Properties                 JSONB              `json:"properties"`
	ServiceTypeID              int                `json:"service_type_id"`
	UrbanFunctionID            int                `json:"urban_function_id"`
	ServiceTypeName            string             `json:"service_type_name"`
	ServiceTypeCapacityModeled int                `json:"service_type_capacity_modeled"`
	ServiceTypeCode            string             `json:"service_type_code"`
	TerritoryTypeID            int                `json:"territory_type_id"`
	TerritoryTypeName          string             `json:"territory_type_name"`
	Geometry                   *geometry.Geometry `json:"geometry,omitempty"`
	CentrePoint                *geometry.Geometry `json:"centre_point,omitempty"`
}

// LivingBuildingRecord is the joined read shape for a living building.
type LivingBuildingRecord struct {
	LivingBuildingID         int                `json:"living_building_id"`
	ResidentsNumber          int                `json:"residents_number"`
	LivingArea               float64            `json:"living_area"`
	Properties               JSONB              `json:"properties"`
	PhysicalObjectID         int                `json:"physical_object_id"`
	PhysicalObjectName       *string            `json:"physical_object_name,omitempty"`
	PhysicalObjectProperties JSONB              `json:"physical_object_properties"`
	PhysicalObjectTypeID     int                `json:"physical_object_type_id"`
	PhysicalObjectTypeName   string             `json:"physical_object_type_name"`
	PhysicalObjectAddress    *string            `json:"physical_object_address,omitempty"`
	Geometry                 *geometry.Geometry `json:"geometry,omitempty"`
	CentrePoint              *geometry.Geometry `json:"centre_point,omitempty"`
}

// ObjectGeometryRecord is the read shape for a geometry row.
type ObjectGeometryRecord struct {
	ObjectGeometryID int               `json:"object_geometry_id"`
	TerritoryID      int               `json:"territory_id"`
	Address          *string           `json:"address,omitempty"`
	Geometry         geometry.Geometry `json:"geometry"`
	CentrePoint      geometry.Geometry `json:"centre_point"`
}

// UrbanObjectRefs is returned by the composite create flow: the three
// generated identifiers plus the territory the geometry landed in.
type UrbanObjectRefs struct {
	PhysicalObjectID int `json:"physical_object_id"`
	ObjectGeometryID int `json:"object_geometry_id"`
	TerritoryID      int `json:"territory_id"`
}
