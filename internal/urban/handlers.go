package urban

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kanootoko/urban-api/internal/apperr"
	"github.com/kanootoko/urban-api/internal/db"
	"gorm.io/gorm"
)

func respondError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput{Reason: name + " must be a positive integer"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return nil, apperr.InvalidInput{Reason: name + " must be a positive integer"}
	}
	return &value, nil
}

func queryString(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

func GetPhysicalObjectTypesHandler(w http.ResponseWriter, r *http.Request) {
	types, err := ListPhysicalObjectTypes(db.DB.WithContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func CreatePhysicalObjectTypeHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var created *PhysicalObjectType
	err := db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = CreatePhysicalObjectType(tx, input.Name)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func GetServiceTypesHandler(w http.ResponseWriter, r *http.Request) {
	urbanFunctionID, err := queryInt(r, "urban_function_id")
	if err != nil {
		respondError(w, err)
		return
	}

	types, err := ListServiceTypes(db.DB.WithContext(r.Context()), urbanFunctionID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func CreateServiceTypeHandler(w http.ResponseWriter, r *http.Request) {
	var input ServiceTypeCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var created *ServiceType
	err := db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = CreateServiceType(tx, input)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func CreatePhysicalObjectHandler(w http.ResponseWriter, r *http.Request) {
	var input PhysicalObjectCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, apperr.InvalidInput{Reason: "invalid request body: " + err.Error()})
		return
	}

	var refs *UrbanObjectRefs
	err := db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		refs, txErr = CreatePhysicalObjectWithGeometry(tx, input)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, refs)
}

func PutPhysicalObjectHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var input PhysicalObjectPut
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var record *PhysicalObjectRecord
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = PutPhysicalObject(tx, id, input)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func PatchPhysicalObjectHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var patch PhysicalObjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var record *PhysicalObjectRecord
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = PatchPhysicalObject(tx, id, patch)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func PutObjectGeometryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var input ObjectGeometryPut
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, apperr.InvalidInput{Reason: "invalid request body: " + err.Error()})
		return
	}

	var record *ObjectGeometryRecord
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = PutObjectGeometry(tx, id, input)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func PatchObjectGeometryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var patch ObjectGeometryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, apperr.InvalidInput{Reason: "invalid request body: " + err.Error()})
		return
	}

	var record *ObjectGeometryRecord
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = PatchObjectGeometry(tx, id, patch)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func CreateLivingBuildingHandler(w http.ResponseWriter, r *http.Request) {
	var input LivingBuildingCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var record *LivingBuildingRecord
	err := db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = CreateLivingBuilding(tx, input)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func PutLivingBuildingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var input LivingBuildingPut
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var record *LivingBuildingRecord
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = PutLivingBuilding(tx, id, input)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func PatchLivingBuildingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var patch LivingBuildingPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var record *LivingBuildingRecord
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = PatchLivingBuilding(tx, id, patch)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Scoped reads run inside a transaction too: the parent existence check
// and the join query need one consistent snapshot.

func physicalObjectsByTerritoryHandler(withGeometry bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		territoryID, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		typeID, err := queryInt(r, "physical_object_type_id")
		if err != nil {
			respondError(w, err)
			return
		}
		filters := Filters{PhysicalObjectTypeID: typeID, Name: queryString(r, "name")}

		var records []PhysicalObjectRecord
		err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
			var txErr error
			records, txErr = PhysicalObjectsByTerritory(tx, territoryID, withGeometry, filters)
			return txErr
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func servicesByTerritoryHandler(withGeometry bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		territoryID, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		serviceTypeID, err := queryInt(r, "service_type_id")
		if err != nil {
			respondError(w, err)
			return
		}
		filters := Filters{ServiceTypeID: serviceTypeID, Name: queryString(r, "name")}

		var records []ServiceRecord
		err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
			var txErr error
			records, txErr = ServicesByTerritory(tx, territoryID, withGeometry, filters)
			return txErr
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func LivingBuildingsByTerritoryHandler(w http.ResponseWriter, r *http.Request) {
	territoryID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var records []LivingBuildingRecord
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		records, txErr = LivingBuildingsByTerritory(tx, territoryID)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func servicesByPhysicalObjectHandler(withGeometry bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		physicalObjectID, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		serviceTypeID, err := queryInt(r, "service_type_id")
		if err != nil {
			respondError(w, err)
			return
		}
		territoryTypeID, err := queryInt(r, "territory_type_id")
		if err != nil {
			respondError(w, err)
			return
		}
		filters := Filters{ServiceTypeID: serviceTypeID, TerritoryTypeID: territoryTypeID}

		var records []ServiceRecord
		err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
			var txErr error
			records, txErr = ServicesByPhysicalObject(tx, physicalObjectID, withGeometry, filters)
			return txErr
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func GeometriesByPhysicalObjectHandler(w http.ResponseWriter, r *http.Request) {
	physicalObjectID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var records []ObjectGeometryRecord
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		records, txErr = GeometriesByPhysicalObject(tx, physicalObjectID)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func TerritoryServiceCapacityHandler(w http.ResponseWriter, r *http.Request) {
	territoryID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	serviceTypeID, err := queryInt(r, "service_type_id")
	if err != nil {
		respondError(w, err)
		return
	}
	if serviceTypeID == nil {
		respondError(w, apperr.InvalidInput{Reason: "service_type_id is required"})
		return
	}

	var capacity *int64
	err = db.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var txErr error
		capacity, txErr = TerritoryServiceCapacity(tx, territoryID, *serviceTypeID)
		return txErr
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"territory_id":    territoryID,
		"service_type_id": *serviceTypeID,
		"capacity":        capacity, // null when no services match
	})
}
