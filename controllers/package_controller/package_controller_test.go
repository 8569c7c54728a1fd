package package_controller

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/models/package_models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCatalog struct {
	packages map[uuid.UUID]*package_models.TravelPackage
	inUse    map[uuid.UUID]bool
	lastSearch package_models.SearchParams
}

func newMemCatalog() *memCatalog {
	return &memCatalog{packages: map[uuid.UUID]*package_models.TravelPackage{}, inUse: map[uuid.UUID]bool{}}
}

func (m *memCatalog) Create(_ context.Context, p *package_models.TravelPackage) error {
	p.ID = uuid.New()
	cp := *p
	m.packages[p.ID] = &cp
	return nil
}

func (m *memCatalog) GetByID(_ context.Context, id uuid.UUID) (*package_models.TravelPackage, error) {
	p, ok := m.packages[id]
	if !ok {
		return nil, package_models.ErrPackageNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memCatalog) Update(_ context.Context, p *package_models.TravelPackage) (*package_models.TravelPackage, error) {
	if _, ok := m.packages[p.ID]; !ok {
		return nil, package_models.ErrPackageNotFound
	}
	cp := *p
	m.packages[p.ID] = &cp
	return &cp, nil
}

func (m *memCatalog) Delete(_ context.Context, id uuid.UUID) error {
	if m.inUse[id] {
		return package_models.ErrPackageInUse
	}
	if _, ok := m.packages[id]; !ok {
		return package_models.ErrPackageNotFound
	}
	delete(m.packages, id)
	return nil
}

func (m *memCatalog) Search(_ context.Context, params package_models.SearchParams) ([]package_models.TravelPackage, error) {
	m.lastSearch = params
	return []package_models.TravelPackage{}, nil
}

func newRouter(pc *PackageController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/create-package", pc.CreatePackage)
	r.POST("/update-package/:id", pc.UpdatePackage)
	r.DELETE("/delete-package/:id", pc.DeletePackage)
	r.GET("/get-packages", pc.GetPackages)
	r.GET("/get-package-data/:id", pc.GetPackageData)
	return r
}

func request(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const goaPackage = `{
	"packageName": "Goa Getaway", "packageDescription": "Beaches", "packageDestination": "Goa",
	"packageDays": 4, "packageNights": 3, "packageAccommodation": "Resort", "packageTransportation": "Flight",
	"packageMeals": "Breakfast", "packageActivities": "Snorkelling", "packagePrice": 80000,
	"packageDiscountPrice": 75000, "packageOffer": true, "packageImages": ["goa.jpg"]
}`

func TestCreatePackage(t *testing.T) {
	catalog := newMemCatalog()
	r := newRouter(NewPackageController(catalog))

	w := request(r, http.MethodPost, "/create-package", goaPackage)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, catalog.packages, 1)
	for _, p := range catalog.packages {
		assert.Equal(t, int64(75000), p.UnitPrice())
	}
}

func TestCreatePackageValidation(t *testing.T) {
	r := newRouter(NewPackageController(newMemCatalog()))

	tests := []struct {
		body string
		msg  string
	}{
		{`{"packageName":"Goa"}`, "All fields are required!"},
		{`{"packageName":"Goa","packageDescription":"d","packageDestination":"Goa","packageDays":2,
			"packageAccommodation":"a","packageTransportation":"t","packageMeals":"m","packageActivities":"x",
			"packagePrice":100,"packageDiscountPrice":200,"packageImages":["i"]}`, "Regular price should be greater than discount price!"},
		{`{"packageName":"Goa","packageDescription":"d","packageDestination":"Goa",
			"packageAccommodation":"a","packageTransportation":"t","packageMeals":"m","packageActivities":"x",
			"packagePrice":100,"packageImages":["i"]}`, "Provide days and nights!"},
	}
	for _, tt := range tests {
		w := request(r, http.MethodPost, "/create-package", tt.body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), tt.msg)
	}
}

func TestUpdateAndDeletePackage(t *testing.T) {
	catalog := newMemCatalog()
	pc := NewPackageController(catalog)
	r := newRouter(pc)
	require.Equal(t, http.StatusCreated, request(r, http.MethodPost, "/create-package", goaPackage).Code)

	var id uuid.UUID
	for k := range catalog.packages {
		id = k
	}

	w := request(r, http.MethodPost, "/update-package/"+id.String(), `{"packagePrice": 90000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(90000), catalog.packages[id].Price)
	assert.Equal(t, "Goa Getaway", catalog.packages[id].Name)

	catalog.inUse[id] = true
	assert.Equal(t, http.StatusConflict, request(r, http.MethodDelete, "/delete-package/"+id.String(), "").Code)

	catalog.inUse[id] = false
	assert.Equal(t, http.StatusOK, request(r, http.MethodDelete, "/delete-package/"+id.String(), "").Code)
	assert.Equal(t, http.StatusNotFound, request(r, http.MethodGet, "/get-package-data/"+id.String(), "").Code)
}

func TestGetPackagesQuery(t *testing.T) {
	catalog := newMemCatalog()
	r := newRouter(NewPackageController(catalog))

	w := request(r, http.MethodGet, "/get-packages?searchTerm=goa&offer=true&sort=packagePrice&order=asc&limit=3&startIndex=6", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, package_models.SearchParams{
		SearchTerm: "goa", OfferOnly: true, Sort: "packagePrice", Order: "asc", Limit: 3, StartIndex: 6,
	}, catalog.lastSearch)

	request(r, http.MethodGet, "/get-packages", "")
	assert.Equal(t, package_models.SearchParams{Sort: "createdAt", Order: "desc"}, catalog.lastSearch)
}
