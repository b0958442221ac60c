// Package vehicle holds the towing procedure reference data: vehicles, their
// neutral and deactivation procedure PDFs and their pictures.
package vehicle

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	vehicleDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/vehicle"
)

// RepositoryAPI returns (nil, nil) from finders when nothing matches.
// Vehicles are loaded with their attachments.
type RepositoryAPI interface {
	Create(ctx context.Context, v *vehicleDatamodel.Vehicle) error
	Update(ctx context.Context, v *vehicleDatamodel.Vehicle) error
	FindByID(ctx context.Context, id int64) (*vehicleDatamodel.Vehicle, error)
	List(ctx context.Context, skip, limit int) ([]*vehicleDatamodel.Vehicle, error)
	YearRanges(ctx context.Context) ([]*vehicleDatamodel.Vehicle, error)
	BrandsForYear(ctx context.Context, year int64) ([]string, error)
	ModelsFor(ctx context.Context, year int64, brand string) ([]string, error)
	Search(ctx context.Context, year int64, brand, model string) ([]*vehicleDatamodel.Vehicle, error)

	CreateAttachment(ctx context.Context, kind vehicleDatamodel.AttachmentKind, f *vehicleDatamodel.File) error
	FindAttachment(ctx context.Context, kind vehicleDatamodel.AttachmentKind, vehicleID, fileID int64) (*vehicleDatamodel.File, error)
	ListAttachments(ctx context.Context, kind vehicleDatamodel.AttachmentKind, vehicleID int64) ([]vehicleDatamodel.File, error)
	DeleteAttachment(ctx context.Context, kind vehicleDatamodel.AttachmentKind, fileID int64) error
}

// Cache holds lookup results. A miss is (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	DeletePrefix(ctx context.Context, prefix string) error
}

const cachePrefix = "vehicles:"

func yearsKey() string { return cachePrefix + "years" }

func brandsKey(year int64) string { return fmt.Sprintf("%sbrands:%d", cachePrefix, year) }

func modelsKey(year int64, brand string) string {
	return fmt.Sprintf("%smodels:%d:%s", cachePrefix, year, strings.ToLower(brand))
}

func searchKey(year int64, brand, model string) string {
	return fmt.Sprintf("%ssearch:%d:%s:%s", cachePrefix, year, brand, model)
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

type kindInfo struct {
	label      string
	folder     string
	badFormat  string
	notFound   string
	extensions map[string]bool
}

var kinds = map[vehicleDatamodel.AttachmentKind]kindInfo{
	vehicleDatamodel.KindNeutralPDF: {
		label: "Neutral PDF", folder: "pdf", badFormat: "File must be a PDF", notFound: "PDF not found",
		extensions: map[string]bool{".pdf": true},
	},
	vehicleDatamodel.KindDeactivationPDF: {
		label: "Deactivation PDF", folder: "pdf", badFormat: "File must be a PDF", notFound: "PDF not found",
		extensions: map[string]bool{".pdf": true},
	},
	vehicleDatamodel.KindImage: {
		label: "Image", folder: "images", badFormat: "Invalid image format", notFound: "Image not found",
		extensions: imageExtensions,
	},
}

func (k kindInfo) accepts(filename string) bool {
	return k.extensions[strings.ToLower(path.Ext(filename))]
}

// Upload is one file received from a client.
type Upload struct {
	Name string
	Body io.Reader
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// yearsCovered expands each vehicle's range into the sorted set of years.
// An open range covers year_from only.
func yearsCovered(rows []*vehicleDatamodel.Vehicle) []int64 {
	seen := make(map[int64]bool)
	for _, v := range rows {
		end := v.YearFrom
		if v.YearTo != nil && *v.YearTo > end {
			end = *v.YearTo
		}
		for y := v.YearFrom; y <= end; y++ {
			seen[y] = true
		}
	}
	years := make([]int64, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool { return years[i] < years[j] })
	return years
}

func toFileResponse(f vehicleDatamodel.File) FileResponse {
	return FileResponse{
		ID:         f.ID,
		VehicleID:  f.VehicleID,
		FileName:   f.FileName,
		FilePath:   f.FilePath,
		FileSize:   f.FileSize,
		UploadDate: f.UploadDate,
	}
}

func ToResponse(v *vehicleDatamodel.Vehicle) VehicleResponse {
	resp := VehicleResponse{
		ID:                    v.ID,
		Brand:                 v.Brand,
		Model:                 v.Model,
		YearFrom:              v.YearFrom,
		YearTo:                v.YearTo,
		DelayTimeNeutral:      v.DelayTimeNeutral,
		DelayTimeDeactivation: v.DelayTimeDeactivation,
		CreatedAt:             v.CreatedAt,
		UpdatedAt:             v.UpdatedAt,
		NeutralPDFs:           make([]FileResponse, 0, len(v.NeutralPDFs)),
		DeactivationPDFs:      make([]FileResponse, 0, len(v.DeactivationPDFs)),
		Images:                make([]FileResponse, 0, len(v.Images)),
	}
	for _, f := range v.NeutralPDFs {
		resp.NeutralPDFs = append(resp.NeutralPDFs, toFileResponse(f.File))
	}
	for _, f := range v.DeactivationPDFs {
		resp.DeactivationPDFs = append(resp.DeactivationPDFs, toFileResponse(f.File))
	}
	for _, f := range v.Images {
		resp.Images = append(resp.Images, toFileResponse(f.File))
	}
	return resp
}

func toResponses(rows []*vehicleDatamodel.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, 0, len(rows))
	for _, v := range rows {
		out = append(out, ToResponse(v))
	}
	return out
}
