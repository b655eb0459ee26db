package urban

import (
	"github.com/kanootoko/urban-api/internal/apperr"
	"github.com/kanootoko/urban-api/internal/geometry"
	"gorm.io/gorm"
)

// Patch payloads use pointer fields: nil means "field omitted, keep the
// stored value". A JSON null decodes to a nil pointer too, so explicit
// null is indistinguishable from omission and is treated as omission;
// none of the patchable fields here are nullable-and-clearable.

type PhysicalObjectPatch struct {
	PhysicalObjectTypeID *int    `json:"physical_object_type_id,omitempty"`
	Name                 *string `json:"name,omitempty"`
	Properties           *JSONB  `json:"properties,omitempty"`
}

// updates computes the sparse write set: only present fields appear.
func (p PhysicalObjectPatch) updates() map[string]interface{} {
	values := map[string]interface{}{}
	if p.PhysicalObjectTypeID != nil {
		values["physical_object_type_id"] = *p.PhysicalObjectTypeID
	}
	if p.Name != nil {
		values["name"] = *p.Name
	}
	if p.Properties != nil {
		values["properties"] = *p.Properties
	}
	return values
}

// merge validates any changed foreign key and returns the write set.
// A patch with no recognized fields is rejected; a failed foreign-key
// check aborts before anything is written.
func (p PhysicalObjectPatch) merge(tx *gorm.DB) (map[string]interface{}, error) {
	if p.PhysicalObjectTypeID != nil {
		if err := Require(tx, KindPhysicalObjectType, *p.PhysicalObjectTypeID); err != nil {
			return nil, err
		}
	}
	values := p.updates()
	if len(values) == 0 {
		return nil, apperr.InvalidInput{Reason: "patch contains no recognized fields"}
	}
	return values, nil
}

type ObjectGeometryPatch struct {
	TerritoryID *int               `json:"territory_id,omitempty"`
	Geometry    *geometry.Geometry `json:"geometry,omitempty"`
	CentrePoint *geometry.Geometry `json:"centre_point,omitempty"`
	Address     *string            `json:"address,omitempty"`
}

func (p ObjectGeometryPatch) updates() map[string]interface{} {
	values := map[string]interface{}{}
	if p.TerritoryID != nil {
		values["territory_id"] = *p.TerritoryID
	}
	if p.Geometry != nil {
		values["geometry"] = *p.Geometry
	}
	if p.CentrePoint != nil {
		values["centre_point"] = *p.CentrePoint
	}
	if p.Address != nil {
		values["address"] = *p.Address
	}
	return values
}

// merge validates a changed territory and enforces the centre-point
// variant before returning the write set. A geometry patch without a
// centre point keeps the stored centre point.
func (p ObjectGeometryPatch) merge(tx *gorm.DB) (map[string]interface{}, error) {
	if p.CentrePoint != nil && !p.CentrePoint.IsPoint() {
		return nil, apperr.InvalidInput{Reason: "centre_point must be a Point"}
	}
	if p.TerritoryID != nil {
		if err := Require(tx, KindTerritory, *p.TerritoryID); err != nil {
			return nil, err
		}
	}
	values := p.updates()
	if len(values) == 0 {
		return nil, apperr.InvalidInput{Reason: "patch contains no recognized fields"}
	}
	return values, nil
}

type LivingBuildingPatch struct {
	PhysicalObjectID *int     `json:"physical_object_id,omitempty"`
	ResidentsNumber  *int     `json:"residents_number,omitempty"`
	LivingArea       *float64 `json:"living_area,omitempty"`
	Properties       *JSONB   `json:"properties,omitempty"`
}

func (p LivingBuildingPatch) updates() map[string]interface{} {
	values := map[string]interface{}{}
	if p.PhysicalObjectID != nil {
		values["physical_object_id"] = *p.PhysicalObjectID
	}
	if p.ResidentsNumber != nil {
		values["residents_number"] = *p.ResidentsNumber
	}
	if p.LivingArea != nil {
		values["living_area"] = *p.LivingArea
	}
	if p.Properties != nil {
		values["properties"] = *p.Properties
	}
	return values
}

func (p LivingBuildingPatch) merge(tx *gorm.DB) (map[string]interface{}, error) {
	if p.PhysicalObjectID != nil {
		if err := Require(tx, KindPhysicalObject, *p.PhysicalObjectID); err != nil {
			return nil, err
		}
	}
	values := p.updates()
	if len(values) == 0 {
		return nil, apperr.InvalidInput{Reason: "patch contains no recognized fields"}
	}
	return values, nil
}
