package vehicle_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/storage"
	"github.com/apdq/deliver-backend/internal/testutil"
	"github.com/apdq/deliver-backend/internal/transport"
	"github.com/apdq/deliver-backend/internal/vehicle"
	vehiclePostgres "github.com/apdq/deliver-backend/internal/vehicle/postgres"
)

var _ = Describe("Vehicle Handler Integration", func() {
	var router *chi.Mux

	BeforeEach(func() {
		db, err := testutil.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		store, err := storage.NewLocalStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		service := vehicle.NewService(vehiclePostgres.NewVehicleRepository(db), store, newMemoryCache(), "apdq", quietLogger())
		handler := vehicle.NewHandler(transport.NewBaseHandler(quietLogger()), service)

		router = chi.NewRouter()
		router.Get("/ftp/images/*", handler.ServeFile)
		router.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(internal.ContextWithAccount(req.Context(), manager())))
				})
			})
			r.Post("/vehicles/", handler.CreateVehicle)
			r.Get("/vehicles/", handler.ListVehicles)
			r.Get("/vehicles/{id}", handler.GetVehicle)
			r.Put("/vehicles/{id}", handler.UpdateVehicle)
			r.Post("/vehicles/{id}/upload-image", handler.UploadImage)
			r.Post("/vehicles/{id}/upload-neutral-pdf", handler.UploadNeutralPDF)
			r.Delete("/vehicles/{id}/neutral-pdfs/{pdf_id}", handler.DeleteNeutralPDF)
			r.Get("/api/v1/years", handler.Years)
			r.Get("/api/v1/brands/{year}", handler.Brands)
			r.Get("/api/v1/models/{year}/{brand}", handler.Models)
			r.Get("/api/v1/vehicles", handler.SearchVehicles)
		})
	})

	send := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	sendJSON := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return send(req)
	}

	multipartRequest := func(path, filename, content string) *http.Request {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	createVehicle := func() vehicle.VehicleResponse {
		rec := sendJSON(http.MethodPost, "/vehicles/", `{"brand":"Tesla","model":"Model 3","year_from":2019,"year_to":2021}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var v vehicle.VehicleResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &v)).To(Succeed())
		return v
	}

	It("creates, reads and lists vehicles", func() {
		v := createVehicle()

		rec := sendJSON(http.MethodGet, fmt.Sprintf("/vehicles/%d", v.ID), "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"neutral_pdfs":[]`))

		rec = sendJSON(http.MethodGet, "/vehicles/?skip=0&limit=10", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Model 3"))

		Expect(sendJSON(http.MethodGet, "/vehicles/?limit=ten", "").Code).To(Equal(http.StatusBadRequest))
		Expect(sendJSON(http.MethodGet, "/vehicles/404", "").Code).To(Equal(http.StatusNotFound))
	})

	It("answers reference lookups", func() {
		createVehicle()

		rec := sendJSON(http.MethodGet, "/api/v1/years", "")
		Expect(rec.Body.String()).To(MatchJSON(`{"years":[2019,2020,2021]}`))

		rec = sendJSON(http.MethodGet, "/api/v1/brands/2020", "")
		Expect(rec.Body.String()).To(MatchJSON(`{"year":2020,"brands":["Tesla"]}`))

		rec = sendJSON(http.MethodGet, "/api/v1/models/2020/Tesla", "")
		Expect(rec.Body.String()).To(MatchJSON(`["Model 3"]`))

		Expect(sendJSON(http.MethodGet, "/api/v1/vehicles?year=2020&brand=Tesla", "").Code).To(Equal(http.StatusOK))
		Expect(sendJSON(http.MethodGet, "/api/v1/vehicles?year=2030", "").Code).To(Equal(http.StatusNotFound))
		Expect(sendJSON(http.MethodGet, "/api/v1/vehicles", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("uploads an image and streams it back", func() {
		v := createVehicle()

		rec := send(multipartRequest(fmt.Sprintf("/vehicles/%d/upload-image", v.ID), "front.png", "png-data"))
		Expect(rec.Code).To(Equal(http.StatusOK))
		var up vehicle.UploadResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &up)).To(Succeed())
		Expect(up.FilePath).To(HavePrefix("apdq/images/"))

		rec = send(httptest.NewRequest(http.MethodGet, "/ftp/images/"+up.FilePath, nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("image/png"))
		Expect(rec.Body.String()).To(Equal("png-data"))

		rec = send(httptest.NewRequest(http.MethodGet, "/ftp/images/apdq/images/none.gif", nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects a missing file part and a wrong extension", func() {
		v := createVehicle()

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/vehicles/%d/upload-neutral-pdf", v.ID), strings.NewReader(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		Expect(send(req).Code).To(Equal(http.StatusBadRequest))

		rec := send(multipartRequest(fmt.Sprintf("/vehicles/%d/upload-neutral-pdf", v.ID), "scan.png", "x"))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("File must be a PDF"))
	})

	It("deletes an uploaded pdf", func() {
		v := createVehicle()
		Expect(send(multipartRequest(fmt.Sprintf("/vehicles/%d/upload-neutral-pdf", v.ID), "n.pdf", "%PDF")).Code).To(Equal(http.StatusOK))

		rec := sendJSON(http.MethodGet, fmt.Sprintf("/vehicles/%d", v.ID), "")
		var got vehicle.VehicleResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
		Expect(got.NeutralPDFs).To(HaveLen(1))

		rec = sendJSON(http.MethodDelete, fmt.Sprintf("/vehicles/%d/neutral-pdfs/%d", v.ID, got.NeutralPDFs[0].ID), "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Neutral PDF deleted successfully"))
	})
})
