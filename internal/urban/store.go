package urban

import (
	"database/sql"
	"fmt"

	"github.com/kanootoko/urban-api/internal/apperr"
	"github.com/kanootoko/urban-api/internal/geometry"
	"gorm.io/gorm"
)

// Every operation takes an explicit *gorm.DB session. Write paths are
// expected to run inside a transaction started by the caller; rollback
// on early error return is the transaction's job, so no operation here
// leaves a half-written entity graph behind.

type PhysicalObjectCreate struct {
	TerritoryID          int               `json:"territory_id"`
	PhysicalObjectTypeID int               `json:"physical_object_type_id"`
	Name                 *string           `json:"name,omitempty"`
	Properties           JSONB             `json:"properties"`
	Geometry             geometry.Geometry `json:"geometry"`
	CentrePoint          geometry.Geometry `json:"centre_point"`
	Address              *string           `json:"address,omitempty"`
}

type PhysicalObjectPut struct {
	PhysicalObjectTypeID int     `json:"physical_object_type_id"`
	Name                 *string `json:"name"`
	Properties           JSONB   `json:"properties"`
}

type ServiceTypeCreate struct {
	Name            string `json:"name"`
	UrbanFunctionID int    `json:"urban_function_id"`
	CapacityModeled int    `json:"capacity_modeled"`
	Code            string `json:"code"`
}

type ObjectGeometryPut struct {
	TerritoryID int               `json:"territory_id"`
	Geometry    geometry.Geometry `json:"geometry"`
	CentrePoint geometry.Geometry `json:"centre_point"`
	Address     *string           `json:"address,omitempty"`
}

type LivingBuildingCreate struct {
	PhysicalObjectID int     `json:"physical_object_id"`
	ResidentsNumber  int     `json:"residents_number"`
	LivingArea       float64 `json:"living_area"`
	Properties       JSONB   `json:"properties"`
}

type LivingBuildingPut struct {
	PhysicalObjectID int     `json:"physical_object_id"`
	ResidentsNumber  int     `json:"residents_number"`
	LivingArea       float64 `json:"living_area"`
	Properties       JSONB   `json:"properties"`
}

func ListPhysicalObjectTypes(tx *gorm.DB) ([]PhysicalObjectType, error) {
	var types []PhysicalObjectType
	err := tx.Order("physical_object_type_id").Find(&types).Error
	if err != nil {
		return nil, fmt.Errorf("list physical object types: %w", err)
	}
	return types, nil
}

// CreatePhysicalObjectType enforces name uniqueness before writing; a
// duplicate is a Conflict, not a driver-level constraint failure.
func CreatePhysicalObjectType(tx *gorm.DB, name string) (*PhysicalObjectType, error) {
	if name == "" {
		return nil, apperr.InvalidInput{Reason: "physical object type name is empty"}
	}

	var count int64
	if err := tx.Model(&PhysicalObjectType{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check physical object type name: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict{Kind: string(KindPhysicalObjectType), Field: "name"}
	}

	objectType := PhysicalObjectType{Name: name}
	if err := tx.Create(&objectType).Error; err != nil {
		return nil, apperr.FromPg(err, string(KindPhysicalObjectType))
	}
	return &objectType, nil
}

// ListServiceTypes returns the dictionary, optionally restricted to one
// urban function.
func ListServiceTypes(tx *gorm.DB, urbanFunctionID *int) ([]ServiceType, error) {
	q := tx.Order("service_type_id")
	if urbanFunctionID != nil {
		q = q.Where("urban_function_id = ?", *urbanFunctionID)
	}

	var types []ServiceType
	if err := q.Find(&types).Error; err != nil {
		return nil, fmt.Errorf("list service types: %w", err)
	}
	return types, nil
}

// CreateServiceType enforces name uniqueness the same way the physical
// object type dictionary does.
func CreateServiceType(tx *gorm.DB, in ServiceTypeCreate) (*ServiceType, error) {
	if in.Name == "" {
		return nil, apperr.InvalidInput{Reason: "service type name is empty"}
	}

	var count int64
	if err := tx.Model(&ServiceType{}).Where("name = ?", in.Name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check service type name: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict{Kind: string(KindServiceType), Field: "name"}
	}

	serviceType := ServiceType{
		Name:            in.Name,
		UrbanFunctionID: in.UrbanFunctionID,
		CapacityModeled: in.CapacityModeled,
		Code:            in.Code,
	}
	if err := tx.Create(&serviceType).Error; err != nil {
		return nil, apperr.FromPg(err, string(KindServiceType))
	}
	return &serviceType, nil
}

// CreatePhysicalObjectWithGeometry validates both foreign references,
// then inserts the physical object, its geometry and the linking urban
// object row. Any validation failure aborts before the first insert.
func CreatePhysicalObjectWithGeometry(tx *gorm.DB, in PhysicalObjectCreate) (*UrbanObjectRefs, error) {
	if in.Geometry.IsZero() {
		return nil, apperr.InvalidInput{Reason: "geometry is required"}
	}
	centrePoint := in.CentrePoint
	if centrePoint.IsZero() {
		centrePoint = in.Geometry.Centroid()
	} else if !centrePoint.IsPoint() {
		return nil, apperr.InvalidInput{Reason: "centre_point must be a Point"}
	}

	if err := Require(tx, KindTerritory, in.TerritoryID); err != nil {
		return nil, err
	}
	if err := Require(tx, KindPhysicalObjectType, in.PhysicalObjectTypeID); err != nil {
		return nil, err
	}

	object := PhysicalObject{
		PhysicalObjectTypeID: in.PhysicalObjectTypeID,
		Name:                 in.Name,
		Properties:           in.Properties,
	}
	if err := tx.Create(&object).Error; err != nil {
		return nil, apperr.FromPg(err, string(KindPhysicalObject))
	}

	geom := ObjectGeometry{
		TerritoryID: in.TerritoryID,
		Geometry:    in.Geometry,
		CentrePoint: centrePoint,
		Address:     in.Address,
	}
	if err := tx.Create(&geom).Error; err != nil {
		return nil, apperr.FromPg(err, string(KindObjectGeometry))
	}

	link := UrbanObject{
		PhysicalObjectID: object.PhysicalObjectID,
		ObjectGeometryID: geom.ObjectGeometryID,
	}
	if err := tx.Create(&link).Error; err != nil {
		return nil, apperr.FromPg(err, "urban object")
	}

	return &UrbanObjectRefs{
		PhysicalObjectID: object.PhysicalObjectID,
		ObjectGeometryID: geom.ObjectGeometryID,
		TerritoryID:      in.TerritoryID,
	}, nil
}

// GetPhysicalObject is the standard single-entity read: the row joined
// with its type name and the address of its first associated geometry.
func GetPhysicalObject(tx *gorm.DB, id int) (*PhysicalObjectRecord, error) {
	var records []PhysicalObjectRecord
	err := tx.Table("urban.physical_objects_data").
		Select([]string{
			"physical_objects_data.physical_object_id",
			"physical_objects_data.physical_object_type_id",
			"physical_object_types_dict.name AS physical_object_type_name",
			"physical_objects_data.name",
			"object_geometries_data.address",
			"physical_objects_data.properties",
		}).
		Joins("JOIN urban.urban_objects_data ON urban_objects_data.physical_object_id = physical_objects_data.physical_object_id").
		Joins("JOIN urban.object_geometries_data ON object_geometries_data.object_geometry_id = urban_objects_data.object_geometry_id").
		Joins("JOIN urban.physical_object_types_dict ON physical_object_types_dict.physical_object_type_id = physical_objects_data.physical_object_type_id").
		Where("physical_objects_data.physical_object_id = ?", id).
		Limit(1).
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("get physical object %d: %w", id, err)
	}
	if len(records) == 0 {
		return nil, apperr.NotFound{Kind: string(KindPhysicalObject), ID: id}
	}
	return &records[0], nil
}

// PutPhysicalObject is a full replace: every stored attribute takes the
// payload value, including nils.
func PutPhysicalObject(tx *gorm.DB, id int, in PhysicalObjectPut) (*PhysicalObjectRecord, error) {
	if err := Require(tx, KindPhysicalObject, id); err != nil {
		return nil, err
	}
	if err := Require(tx, KindPhysicalObjectType, in.PhysicalObjectTypeID); err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"physical_object_type_id": in.PhysicalObjectTypeID,
		"name":                    in.Name,
		"properties":              in.Properties,
	}
	err := tx.Model(&PhysicalObject{}).Where("physical_object_id = ?", id).Updates(values).Error
	if err != nil {
		return nil, apperr.FromPg(err, string(KindPhysicalObject))
	}

	return GetPhysicalObject(tx, id)
}

// PatchPhysicalObject merges a sparse field set into the stored row.
// Omitted fields keep their stored values untouched.
func PatchPhysicalObject(tx *gorm.DB, id int, patch PhysicalObjectPatch) (*PhysicalObjectRecord, error) {
	if err := Require(tx, KindPhysicalObject, id); err != nil {
		return nil, err
	}

	values, err := patch.merge(tx)
	if err != nil {
		return nil, err
	}

	err = tx.Model(&PhysicalObject{}).Where("physical_object_id = ?", id).Updates(values).Error
	if err != nil {
		return nil, apperr.FromPg(err, string(KindPhysicalObject))
	}

	return GetPhysicalObject(tx, id)
}

func GetObjectGeometry(tx *gorm.DB, id int) (*ObjectGeometryRecord, error) {
	var records []ObjectGeometryRecord
	err := tx.Table("urban.object_geometries_data").
		Select([]string{
			"object_geometries_data.object_geometry_id",
			"object_geometries_data.territory_id",
			"object_geometries_data.address",
			"object_geometries_data.geometry",
			"object_geometries_data.centre_point",
		}).
		Where("object_geometries_data.object_geometry_id = ?", id).
		Limit(1).
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("get object geometry %d: %w", id, err)
	}
	if len(records) == 0 {
		return nil, apperr.NotFound{Kind: string(KindObjectGeometry), ID: id}
	}
	return &records[0], nil
}

// PutObjectGeometry is a full replace of the footprint: territory,
// geometry, centre point and address all take the payload values. The
// centre point defaults to the new geometry's centroid when omitted.
func PutObjectGeometry(tx *gorm.DB, id int, in ObjectGeometryPut) (*ObjectGeometryRecord, error) {
	if in.Geometry.IsZero() {
		return nil, apperr.InvalidInput{Reason: "geometry is required"}
	}
	centrePoint := in.CentrePoint
	if centrePoint.IsZero() {
		centrePoint = in.Geometry.Centroid()
	} else if !centrePoint.IsPoint() {
		return nil, apperr.InvalidInput{Reason: "centre_point must be a Point"}
	}

	if err := Require(tx, KindObjectGeometry, id); err != nil {
		return nil, err
	}
	if err := Require(tx, KindTerritory, in.TerritoryID); err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"territory_id": in.TerritoryID,
		"geometry":     in.Geometry,
		"centre_point": centrePoint,
		"address":      in.Address,
	}
	err := tx.Model(&ObjectGeometry{}).Where("object_geometry_id = ?", id).Updates(values).Error
	if err != nil {
		return nil, apperr.FromPg(err, string(KindObjectGeometry))
	}

	return GetObjectGeometry(tx, id)
}

// PatchObjectGeometry merges a sparse field set; a changed territory is
// revalidated first.
func PatchObjectGeometry(tx *gorm.DB, id int, patch ObjectGeometryPatch) (*ObjectGeometryRecord, error) {
	if err := Require(tx, KindObjectGeometry, id); err != nil {
		return nil, err
	}

	values, err := patch.merge(tx)
	if err != nil {
		return nil, err
	}

	err = tx.Model(&ObjectGeometry{}).Where("object_geometry_id = ?", id).Updates(values).Error
	if err != nil {
		return nil, apperr.FromPg(err, string(KindObjectGeometry))
	}

	return GetObjectGeometry(tx, id)
}

func GetLivingBuilding(tx *gorm.DB, id int) (*LivingBuildingRecord, error) {
	var records []LivingBuildingRecord
	err := tx.Table("urban.living_buildings_data").
		Select([]string{
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
		}).
		Joins("JOIN urban.physical_objects_data ON physical_objects_data.physical_object_id = living_buildings_data.physical_object_id").
		Joins("JOIN urban.physical_object_types_dict ON physical_object_types_dict.physical_object_type_id = physical_objects_data.physical_object_type_id").
		Joins("JOIN urban.urban_objects_data ON urban_objects_data.physical_object_id = physical_objects_data.physical_object_id").
		Joins("JOIN urban.object_geometries_data ON object_geometries_data.object_geometry_id = urban_objects_data.object_geometry_id").
		Where("living_buildings_data.living_building_id = ?", id).
		Limit(1).
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("get living building %d: %w", id, err)
	}
	if len(records) == 0 {
		return nil, apperr.NotFound{Kind: string(KindLivingBuilding), ID: id}
	}
	return &records[0], nil
}

func CreateLivingBuilding(tx *gorm.DB, in LivingBuildingCreate) (*LivingBuildingRecord, error) {
	if err := Require(tx, KindPhysicalObject, in.PhysicalObjectID); err != nil {
		return nil, err
	}

	building := LivingBuilding{
		PhysicalObjectID: in.PhysicalObjectID,
		ResidentsNumber:  in.ResidentsNumber,
		LivingArea:       in.LivingArea,
		Properties:       in.Properties,
	}
	if err := tx.Create(&building).Error; err != nil {
		return nil, apperr.FromPg(err, string(KindLivingBuilding))
	}

	return GetLivingBuilding(tx, building.LivingBuildingID)
}

func PutLivingBuilding(tx *gorm.DB, id int, in LivingBuildingPut) (*LivingBuildingRecord, error) {
	if err := Require(tx, KindLivingBuilding, id); err != nil {
		return nil, err
	}
	if err := Require(tx, KindPhysicalObject, in.PhysicalObjectID); err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"physical_object_id": in.PhysicalObjectID,
		"residents_number":   in.ResidentsNumber,
		"living_area":        in.LivingArea,
		"properties":         in.Properties,
	}
	err := tx.Model(&LivingBuilding{}).Where("living_building_id = ?", id).Updates(values).Error
	if err != nil {
		return nil, apperr.FromPg(err, string(KindLivingBuilding))
	}

	return GetLivingBuilding(tx, id)
}

func PatchLivingBuilding(tx *gorm.DB, id int, patch LivingBuildingPatch) (*LivingBuildingRecord, error) {
	if err := Require(tx, KindLivingBuilding, id); err != nil {
		return nil, err
	}

	values, err := patch.merge(tx)
	if err != nil {
		return nil, err
	}

	err = tx.Model(&LivingBuilding{}).Where("living_building_id = ?", id).Updates(values).Error
	if err != nil {
		return nil, apperr.FromPg(err, string(KindLivingBuilding))
	}

	return GetLivingBuilding(tx, id)
}

func PhysicalObjectsByTerritory(tx *gorm.DB, territoryID int, withGeometry bool, f Filters) ([]PhysicalObjectRecord, error) {
	if err := Require(tx, KindTerritory, territoryID); err != nil {
		return nil, err
	}

	records := []PhysicalObjectRecord{}
	err := composeScoped(tx, TerritoryPhysicalObjects, territoryID, withGeometry, f).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("physical objects by territory %d: %w", territoryID, err)
	}
	return records, nil
}

func ServicesByTerritory(tx *gorm.DB, territoryID int, withGeometry bool, f Filters) ([]ServiceRecord, error) {
	if err := Require(tx, KindTerritory, territoryID); err != nil {
		return nil, err
	}

	records := []ServiceRecord{}
	err := composeScoped(tx, TerritoryServices, territoryID, withGeometry, f).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("services by territory %d: %w", territoryID, err)
	}
	return records, nil
}

func LivingBuildingsByTerritory(tx *gorm.DB, territoryID int) ([]LivingBuildingRecord, error) {
	if err := Require(tx, KindTerritory, territoryID); err != nil {
		return nil, err
	}

	records := []LivingBuildingRecord{}
	err := composeScoped(tx, TerritoryLivingBuildings, territoryID, true, Filters{}).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("living buildings by territory %d: %w", territoryID, err)
	}
	return records, nil
}

func ServicesByPhysicalObject(tx *gorm.DB, physicalObjectID int, withGeometry bool, f Filters) ([]ServiceRecord, error) {
	if err := Require(tx, KindPhysicalObject, physicalObjectID); err != nil {
		return nil, err
	}

	records := []ServiceRecord{}
	err := composeScoped(tx, PhysicalObjectServices, physicalObjectID, withGeometry, f).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("services by physical object %d: %w", physicalObjectID, err)
	}
	return records, nil
}

func GeometriesByPhysicalObject(tx *gorm.DB, physicalObjectID int) ([]ObjectGeometryRecord, error) {
	if err := Require(tx, KindPhysicalObject, physicalObjectID); err != nil {
		return nil, err
	}

	records := []ObjectGeometryRecord{}
	err := composeScoped(tx, PhysicalObjectGeometries, physicalObjectID, true, Filters{}).Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("geometries by physical object %d: %w", physicalObjectID, err)
	}
	return records, nil
}

// TerritoryServiceCapacity sums capacity_real over the territory's
// services of one service type. The type predicate is always applied;
// no matching rows yields nil (SQL NULL preserved), not zero.
func TerritoryServiceCapacity(tx *gorm.DB, territoryID, serviceTypeID int) (*int64, error) {
	if err := Require(tx, KindTerritory, territoryID); err != nil {
		return nil, err
	}

	q := tx.Table("urban.services_data").
		Select("SUM(services_data.capacity_real) AS total").
		Joins("JOIN urban.urban_objects_data ON urban_objects_data.service_id = services_data.service_id").
		Joins("JOIN urban.object_geometries_data ON object_geometries_data.object_geometry_id = urban_objects_data.object_geometry_id").
		Where("object_geometries_data.territory_id = ?", territoryID).
		Where("services_data.service_type_id = ?", serviceTypeID)

	var result struct {
		Total sql.NullInt64
	}
	if err := q.Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("service capacity for territory %d: %w", territoryID, err)
	}
	if !result.Total.Valid {
		return nil, nil
	}
	total := result.Total.Int64
	return &total, nil
}
