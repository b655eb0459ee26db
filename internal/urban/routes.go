package urban

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Dictionaries
	r.Get("/physical_object_types", GetPhysicalObjectTypesHandler)
	r.Post("/physical_object_types", CreatePhysicalObjectTypeHandler)
	r.Get("/service_types", GetServiceTypesHandler)
	r.Post("/service_types", CreateServiceTypeHandler)

	// Physical objects
	r.Post("/physical_objects", CreatePhysicalObjectHandler)
	r.Put("/physical_objects/{id}", PutPhysicalObjectHandler)
	r.Patch("/physical_objects/{id}", PatchPhysicalObjectHandler)
	r.Get("/physical_objects/{id}/services", servicesByPhysicalObjectHandler(false))
	r.Get("/physical_objects/{id}/services_with_geometry", servicesByPhysicalObjectHandler(true))
	r.Get("/physical_objects/{id}/geometries", GeometriesByPhysicalObjectHandler)

	// Object geometries
	r.Put("/object_geometries/{id}", PutObjectGeometryHandler)
	r.Patch("/object_geometries/{id}", PatchObjectGeometryHandler)

	// Living buildings
	r.Post("/living_buildings", CreateLivingBuildingHandler)
	r.Put("/living_buildings/{id}", PutLivingBuildingHandler)
	r.Patch("/living_buildings/{id}", PatchLivingBuildingHandler)

	// Territory-scoped reads
	r.Get("/territories/{id}/physical_objects", physicalObjectsByTerritoryHandler(false))
	r.Get("/territories/{id}/physical_objects_with_geometry", physicalObjectsByTerritoryHandler(true))
	r.Get("/territories/{id}/services", servicesByTerritoryHandler(false))
	r.Get("/territories/{id}/services_with_geometry", servicesByTerritoryHandler(true))
	r.Get("/territories/{id}/living_buildings_with_geometry", LivingBuildingsByTerritoryHandler)
	r.Get("/territories/{id}/services_capacity", TerritoryServiceCapacityHandler)

	return r
}
