package urban

import (
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newDryRunDB builds a *gorm.DB that composes SQL without executing it,
// so predicate assembly can be asserted without a live database.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return gdb
}

func composedSQL(t *testing.T, pair AnchorPair, withGeometry bool, f Filters) (string, []interface{}) {
	t.Helper()

	gdb := newDryRunDB(t)
	var sink []map[string]interface{}
	result := composeScoped(gdb, pair, 5, withGeometry, f).Find(&sink)
	if result.Error != nil {
		t.Fatalf("compose: %v", result.Error)
	}
	return result.Statement.SQL.String(), result.Statement.Vars
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// TestComposeNoFilters verifies that composing zero filters degrades to
// the unfiltered join: the only predicate is the territory scope.
func TestComposeNoFilters(t *testing.T) {
	sql, vars := composedSQL(t, TerritoryPhysicalObjects, false, Filters{})

	if len(vars) != 1 {
		t.Fatalf("expected exactly the scope variable, got %v", vars)
	}
	if vars[0] != 5 {
		t.Errorf("expected scope var 5, got %v", vars[0])
	}
	if strings.Contains(sql, "ILIKE") {
		t.Error("name predicate present without a name filter")
	}
	if !strings.Contains(sql, "object_geometries_data.territory_id = ") {
		t.Error("territory scope predicate missing")
	}
	for _, table := range []string{"urban_objects_data", "object_geometries_data", "physical_object_types_dict"} {
		if !strings.Contains(sql, table) {
			t.Errorf("join chain missing %s", table)
		}
	}
}

// TestComposeFilterCombinations verifies that the generated predicate
// set contains exactly the filters whose inputs were non-nil.
func TestComposeFilterCombinations(t *testing.T) {
	cases := []struct {
		name      string
		filters   Filters
		wantVars  int
		wantILIKE bool
		wantType  bool
	}{
		{"none", Filters{}, 1, false, false},
		{"type only", Filters{PhysicalObjectTypeID: intPtr(2)}, 2, false, true},
		{"name only", Filters{Name: strPtr("school")}, 2, true, false},
		{"both", Filters{PhysicalObjectTypeID: intPtr(2), Name: strPtr("school")}, 3, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, vars := composedSQL(t, TerritoryPhysicalObjects, false, tc.filters)

			if len(vars) != tc.wantVars {
				t.Errorf("expected %d vars, got %d (%v)", tc.wantVars, len(vars), vars)
			}
			if got := strings.Contains(sql, "ILIKE"); got != tc.wantILIKE {
				t.Errorf("ILIKE presence = %v, want %v", got, tc.wantILIKE)
			}
			typePredicate := "physical_objects_data.physical_object_type_id = $"
			if got := strings.Contains(sql, typePredicate); got != tc.wantType {
				t.Errorf("type predicate presence = %v, want %v", got, tc.wantType)
			}
			if tc.wantILIKE {
				last := vars[len(vars)-1]
				if last != "%school%" {
					t.Errorf("expected substring pattern %%school%%, got %v", last)
				}
			}
		})
	}
}

// TestComposeGeometryColumns verifies geometry columns appear only when
// requested.
func TestComposeGeometryColumns(t *testing.T) {
	withoutGeom, _ := composedSQL(t, TerritoryPhysicalObjects, false, Filters{})
	if strings.Contains(withoutGeom, "centre_point") {
		t.Error("geometry columns selected without geometry request")
	}

	withGeom, _ := composedSQL(t, TerritoryPhysicalObjects, true, Filters{})
	if !strings.Contains(withGeom, "object_geometries_data.geometry") ||
		!strings.Contains(withGeom, "object_geometries_data.centre_point") {
		t.Error("geometry columns missing from with-geometry variant")
	}
}

// TestComposeGeometryJoin verifies the physical-object/service pair only
// joins the geometry table when geometry is requested.
func TestComposeGeometryJoin(t *testing.T) {
	withoutGeom, _ := composedSQL(t, PhysicalObjectServices, false, Filters{})
	if strings.Contains(withoutGeom, "object_geometries_data") {
		t.Error("geometry join present without geometry request")
	}

	withGeom, _ := composedSQL(t, PhysicalObjectServices, true, Filters{})
	if !strings.Contains(withGeom, "object_geometries_data") {
		t.Error("geometry join missing from with-geometry variant")
	}
}

// TestComposeUnsupportedFilterIgnored verifies a filter the pair does
// not support never reaches the predicate set.
func TestComposeUnsupportedFilterIgnored(t *testing.T) {
	// Living-building listings support no filters at all.
	sql, vars := composedSQL(t, TerritoryLivingBuildings, true, Filters{
		PhysicalObjectTypeID: intPtr(2),
		Name:                 strPtr("school"),
	})
	if len(vars) != 1 {
		t.Errorf("expected only the scope var, got %v", vars)
	}
	if strings.Contains(sql, "ILIKE") {
		t.Error("unsupported name filter leaked into predicate set")
	}
}

// TestComposeServiceAnchors verifies the two service anchor pairs scope
// by different parents.
func TestComposeServiceAnchors(t *testing.T) {
	byTerritory, _ := composedSQL(t, TerritoryServices, false, Filters{})
	if !strings.Contains(byTerritory, "object_geometries_data.territory_id = ") {
		t.Error("territory-service pair missing territory scope")
	}

	byPhysicalObject, _ := composedSQL(t, PhysicalObjectServices, false, Filters{})
	if !strings.Contains(byPhysicalObject, "urban_objects_data.physical_object_id = ") {
		t.Error("physical-object-service pair missing physical object scope")
	}
}
