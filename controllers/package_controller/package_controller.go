package package_controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/package_models"
	"github.com/joy095/travelmint/utils"
)

// Catalog is implemented by package_models.Store.
type Catalog interface {
	Create(ctx context.Context, p *package_models.TravelPackage) error
	GetByID(ctx context.Context, id uuid.UUID) (*package_models.TravelPackage, error)
	Update(ctx context.Context, p *package_models.TravelPackage) (*package_models.TravelPackage, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params package_models.SearchParams) ([]package_models.TravelPackage, error)
}

type PackageController struct {
	catalog Catalog
}

func NewPackageController(catalog Catalog) *PackageController {
	return &PackageController{catalog: catalog}
}

// validationMessage maps catalog rule violations to client messages.
func validationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, package_models.ErrMissingFields):
		return "All fields are required!", true
	case errors.Is(err, package_models.ErrDiscountTooHigh):
		return "Regular price should be greater than discount price!", true
	case errors.Is(err, package_models.ErrInvalidPrice):
		return "Price should be greater than 0!", true
	case errors.Is(err, package_models.ErrInvalidDuration):
		return "Provide days and nights!", true
	}
	return "", false
}

func (pc *PackageController) CreatePackage(c *gin.Context) {
	var pkg package_models.TravelPackage
	if err := c.ShouldBindJSON(&pkg); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := pkg.Validate(); err != nil {
		msg, _ := validationMessage(err)
		utils.Fail(c, http.StatusBadRequest, msg)
		return
	}

	if err := pc.catalog.Create(c.Request.Context(), &pkg); err != nil {
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Package created successfully", "package": pkg})
}

func (pc *PackageController) UpdatePackage(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.Fail(c, http.StatusBadRequest, "Invalid package id")
		return
	}

	ctx := c.Request.Context()
	pkg, err := pc.catalog.GetByID(ctx, id)
	if err != nil {
		pc.lookupFailed(c, err)
		return
	}

	// Fields missing from the body keep their current value.
	if err := c.ShouldBindJSON(pkg); err != nil {
		utils.Fail(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	pkg.ID = id
	if err := pkg.Validate(); err != nil {
		msg, _ := validationMessage(err)
		utils.Fail(c, http.StatusBadRequest, msg)
		return
	}

	updated, err := pc.catalog.Update(ctx, pkg)
	if err != nil {
		pc.lookupFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Package updated successfully!", "updatedPackage": updated})
}

func (pc *PackageController) DeletePackage(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.Fail(c, http.StatusBadRequest, "Invalid package id")
		return
	}
	err := pc.catalog.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Package Deleted!"})
	case errors.Is(err, package_models.ErrPackageInUse):
		utils.Fail(c, http.StatusConflict, "Package has bookings and cannot be deleted")
	default:
		pc.lookupFailed(c, err)
	}
}

// GetPackages serves the public catalog search.
func (pc *PackageController) GetPackages(c *gin.Context) {
	packages, err := pc.catalog.Search(c.Request.Context(), SearchParamsFrom(c))
	if err != nil {
		logger.ErrorLogger.Errorf("Package search failed: %v", err)
		utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "packages": packages})
}

func (pc *PackageController) GetPackageData(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.Fail(c, http.StatusNotFound, "Package not found!")
		return
	}
	pkg, err := pc.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		pc.lookupFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "packageData": pkg})
}

func (pc *PackageController) lookupFailed(c *gin.Context, err error) {
	if errors.Is(err, package_models.ErrPackageNotFound) {
		utils.Fail(c, http.StatusNotFound, "Package not found!")
		return
	}
	logger.ErrorLogger.Errorf("Package operation failed: %v", err)
	utils.Fail(c, http.StatusInternalServerError, "Something went wrong")
}

// SearchParamsFrom reads searchTerm, offer, sort, order, limit and startIndex.
func SearchParamsFrom(c *gin.Context) package_models.SearchParams {
	limit, _ := strconv.Atoi(c.Query("limit"))
	start, _ := strconv.Atoi(c.Query("startIndex"))
	return package_models.SearchParams{
		SearchTerm: c.Query("searchTerm"),
		OfferOnly:  c.Query("offer") == "true",
		Sort:       c.DefaultQuery("sort", "createdAt"),
		Order:      c.DefaultQuery("order", "desc"),
		Limit:      limit,
		StartIndex: start,
	}
}
