package urban

import (
	"gorm.io/gorm"
)

// AnchorPair selects the join topology relating a scoping parent to the
// listed entity. Every pair routes through urban_objects_data, the only
// discoverability path in the graph.
type AnchorPair int

const (
	TerritoryPhysicalObjects AnchorPair = iota
	TerritoryServices
	TerritoryLivingBuildings
	PhysicalObjectServices
	PhysicalObjectGeometries
)

// Filters are optional predicates for scoped reads. A filter is applied
// if and only if its value is non-nil; absent filters do not appear in
// the generated predicate set at all, so zero filters degrade to the
// bare join.
type Filters struct {
	PhysicalObjectTypeID *int
	ServiceTypeID        *int
	TerritoryTypeID      *int
	Name                 *string
}

// joinSpec declares one anchor pair: base table, join chain, scoping
// predicate, select list, and which filter columns the pair supports.
// Geometry columns (and any join they need) are attached only when the
// caller asks for geometry.
type joinSpec struct {
	table     string
	joins     []string
	geomJoins []string
	scope     string
	columns   []string
	geomCols  []string

	physicalObjectTypeColumn string
	serviceTypeColumn        string
	territoryTypeColumn      string
	nameColumn               string
}

var serviceColumns = []string{
	"services_data.service_id",
	"services_data.name",
	"services_data.capacity_real",
	"services_data.properties",
	"service_types_dict.service_type_id",
	"service_types_dict.urban_function_id",
	"service_types_dict.name AS service_type_name",
	"service_types_dict.capacity_modeled AS service_type_capacity_modeled",
	"service_types_dict.code AS service_type_code",
	"territory_types_dict.territory_type_id",
	"territory_types_dict.name AS territory_type_name",
}

var geometryColumns = []string{
	"object_geometries_data.geometry AS geometry",
	"object_geometries_data.centre_point AS centre_point",
}

var joinSpecs = map[AnchorPair]joinSpec{
	TerritoryPhysicalObjects: {
		table: "urban.physical_objects_data",
		joins: []string{
			"JOIN urban.urban_objects_data ON urban_objects_data.physical_object_id = physical_objects_data.physical_object_id",
			"JOIN urban.object_geometries_data ON object_geometries_data.object_geometry_id = urban_objects_data.object_geometry_id",
			"JOIN urban.physical_object_types_dict ON physical_object_types_dict.physical_object_type_id = physical_objects_data.physical_object_type_id",
		},
		scope: "object_geometries_data.territory_id = ?",
		columns: []string{
			"physical_objects_data.physical_object_id",
			"physical_objects_data.physical_object_type_id",
			"physical_object_types_dict.name AS physical_object_type_name",
			"physical_objects_data.name",
			"object_geometries_data.address",
			"physical_objects_data.properties",
		},
		geomCols:                 geometryColumns,
		physicalObjectTypeColumn: "physical_objects_data.physical_object_type_id",
		nameColumn:               "physical_objects_data.name",
	},
	TerritoryServices: {
		table: "urban.services_data",
		joins: []string{
			"JOIN urban.urban_objects_data ON urban_objects_data.service_id = services_data.service_id",
			"JOIN urban.object_geometries_data ON object_geometries_data.object_geometry_id = urban_objects_data.object_geometry_id",
			"JOIN urban.service_types_dict ON service_types_dict.service_type_id = services_data.service_type_id",
			"JOIN urban.territory_types_dict ON territory_types_dict.territory_type_id = services_data.territory_type_id",
		},
		scope:             "object_geometries_data.territory_id = ?",
		columns:           serviceColumns,
		geomCols:          geometryColumns,
		serviceTypeColumn: "services_data.service_type_id",
		nameColumn:        "services_data.name",
	},
	TerritoryLivingBuildings: {
		table: "urban.living_buildings_data",
		joins: []string{
			"JOIN urban.urban_objects_data ON urban_objects_data.physical_object_id = living_buildings_data.physical_object_id",
			"JOIN urban.object_geometries_data ON object_geometries_data.object_geometry_id = urban_objects_data.object_geometry_id",
			"JOIN urban.physical_objects_data ON physical_objects_data.physical_object_id = living_buildings_data.physical_object_id",
			"JOIN urban.physical_object_types_dict ON physical_object_types_dict.physical_object_type_id = physical_objects_data.physical_object_type_id",
		},
		scope: "object_geometries_data.territory_id = ?",
		columns: []string{
			"living_buildings_data.living_building_id",
			"living_buildings_data.residents_number",
			"living_buildings_data.living_area",
			"living_buildings_data.properties",
			"physical_objects_data.physical_object_id",
			"physical_objects_data.name AS physical_object_name",
			"physical_objects_data.properties AS physical_object_properties",
			"physical_object_types_dict.physical_object_type_id",
			"physical_object_types_dict.name AS physical_object_type_name",
			"object_geometries_data.address AS physical_object_address",
		},
		geomCols: geometryColumns,
	},
	PhysicalObjectServices: {
		table: "urban.services_data",
		joins: []string{
			"JOIN urban.urban_objects_data ON urban_objects_data.service_id = services_data.service_id",
			"JOIN urban.service_types_dict ON service_types_dict.service_type_id = services_data.service_type_id",
			"JOIN urban.territory_types_dict ON territory_types_dict.territory_type_id = services_data.territory_type_id",
		},
		geomJoins: []string{
			"JOIN urban.object_geometries_data ON object_geometries_data.object_geometry_id = urban_objects_data.object_geometry_id",
		},
		scope:               "urban_objects_data.physical_object_id = ?",
		columns:             serviceColumns,
		geomCols:            geometryColumns,
		serviceTypeColumn:   "services_data.service_type_id",
		territoryTypeColumn: "territory_types_dict.territory_type_id",
	},
	PhysicalObjectGeometries: {
		table: "urban.object_geometries_data",
		joins: []string{
			"JOIN urban.urban_objects_data ON urban_objects_data.object_geometry_id = object_geometries_data.object_geometry_id",
		},
		scope: "urban_objects_data.physical_object_id = ?",
		columns: []string{
			"object_geometries_data.object_geometry_id",
			"object_geometries_data.territory_id",
			"object_geometries_data.address",
		},
		geomCols: geometryColumns,
	},
}

// composeScoped builds the join query for an anchor pair, scoped to the
// given parent id. The parent's existence must already have been
// required by the caller.
func composeScoped(tx *gorm.DB, pair AnchorPair, parentID int, withGeometry bool, f Filters) *gorm.DB {
	spec := joinSpecs[pair]

	columns := spec.columns
	if withGeometry {
		columns = append(append([]string{}, spec.columns...), spec.geomCols...)
	}

	q := tx.Table(spec.table).Select(columns)
	for _, join := range spec.joins {
		q = q.Joins(join)
	}
	if withGeometry {
		for _, join := range spec.geomJoins {
			q = q.Joins(join)
		}
	}
	q = q.Where(spec.scope, parentID)

	if f.PhysicalObjectTypeID != nil && spec.physicalObjectTypeColumn != "" {
		q = q.Where(spec.physicalObjectTypeColumn+" = ?", *f.PhysicalObjectTypeID)
	}
	if f.ServiceTypeID != nil && spec.serviceTypeColumn != "" {
		q = q.Where(spec.serviceTypeColumn+" = ?", *f.ServiceTypeID)
	}
	if f.TerritoryTypeID != nil && spec.territoryTypeColumn != "" {
		q = q.Where(spec.territoryTypeColumn+" = ?", *f.TerritoryTypeID)
	}
	if f.Name != nil && spec.nameColumn != "" {
		q = q.Where(spec.nameColumn+" ILIKE ?", "%"+*f.Name+"%")
	}

	return q
}
