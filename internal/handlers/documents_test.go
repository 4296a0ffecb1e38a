// internal/handlers/documents_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/handlers"
	"github.com/chainflow/chainflow-be/test/helpers"
	"github.com/chainflow/chainflow-be/test/mocks"
)

func newDocumentHandler(t *testing.T) (*handlers.DocumentHandler, *mocks.MockObjectStore, *mocks.MockOrderService, *mocks.MockSupplierService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockObjectStore(ctrl)
	orders := mocks.NewMockOrderService(ctrl)
	suppliers := mocks.NewMockSupplierService(ctrl)
	h := handlers.NewDocumentHandler(store, orders, suppliers, helpers.TestLogger())
	return h, store, orders, suppliers
}

func documentRequest(t *testing.T, method, target string, body *bytes.Buffer, entity string, id uuid.UUID, name string) *http.Request {
	t.Helper()
	var reader *bytes.Buffer
	if body == nil {
		reader = &bytes.Buffer{}
	} else {
		reader = body
	}
	req := httptest.NewRequest(method, target, reader)
	req.SetPathValue("entity", entity)
	req.SetPathValue("id", id.String())
	if name != "" {
		req.SetPathValue("name", name)
	}
	return req
}

func multipartFile(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDocumentHandler_Upload(t *testing.T) {
	h, store, orders, _ := newDocumentHandler(t)

	orderID := uuid.New()
	orders.EXPECT().
		GetByID(gomock.Any(), orderID).
		Return(&domain.Order{ID: orderID}, nil)

	store.EXPECT().
		Upload(gomock.Any(), "documents/orders/"+orderID.String()+"/invoice.pdf", gomock.Any(), "application/pdf").
		Return("s3://chainflow/documents/orders/"+orderID.String()+"/invoice.pdf", nil)

	// CreateFormFile hardcodes application/octet-stream, so build the part
	// header by hand to exercise content type propagation.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="invoice.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := documentRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/documents", &buf, "orders", orderID, "")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	h.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "invoice.pdf", resp.Data["name"])
	assert.Equal(t, "documents/orders/"+orderID.String()+"/invoice.pdf", resp.Data["key"])
}

func TestDocumentHandler_Upload_StripsPathComponents(t *testing.T) {
	h, store, _, suppliers := newDocumentHandler(t)

	supplierID := uuid.New()
	suppliers.EXPECT().
		GetByID(gomock.Any(), supplierID).
		Return(&domain.Supplier{ID: supplierID}, nil)

	store.EXPECT().
		Upload(gomock.Any(), "documents/suppliers/"+supplierID.String()+"/contract.pdf", gomock.Any(), gomock.Any()).
		Return("location", nil)

	body, contentType := multipartFile(t, "../../etc/contract.pdf", "data")
	req := documentRequest(t, http.MethodPost, "/api/v1/suppliers/"+supplierID.String()+"/documents", body, "suppliers", supplierID, "")
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	h.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDocumentHandler_Upload_UnknownEntity(t *testing.T) {
	h, _, _, _ := newDocumentHandler(t)

	body, contentType := multipartFile(t, "notes.txt", "hello")
	req := documentRequest(t, http.MethodPost, "/api/v1/widgets/"+uuid.NewString()+"/documents", body, "widgets", uuid.New(), "")
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	h.Upload(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not supported")
}

func TestDocumentHandler_Upload_MissingOrder(t *testing.T) {
	h, _, orders, _ := newDocumentHandler(t)

	orderID := uuid.New()
	orders.EXPECT().
		GetByID(gomock.Any(), orderID).
		Return(nil, domain.NewNotFoundError("order", orderID.String()))

	body, contentType := multipartFile(t, "invoice.pdf", "data")
	req := documentRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/documents", body, "orders", orderID, "")
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	h.Upload(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_Upload_InvalidID(t *testing.T) {
	h, _, _, _ := newDocumentHandler(t)

	body, contentType := multipartFile(t, "invoice.pdf", "data")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/documents", body)
	req.SetPathValue("entity", "orders")
	req.SetPathValue("id", "not-a-uuid")
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	h.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid ID format")
}

func TestDocumentHandler_Upload_MissingFileField(t *testing.T) {
	h, _, orders, _ := newDocumentHandler(t)

	orderID := uuid.New()
	orders.EXPECT().
		GetByID(gomock.Any(), orderID).
		Return(&domain.Order{ID: orderID}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := documentRequest(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/documents", &buf, "orders", orderID, "")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	h.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing file field")
}

func TestDocumentHandler_List(t *testing.T) {
	h, store, orders, _ := newDocumentHandler(t)

	orderID := uuid.New()
	prefix := "documents/orders/" + orderID.String() + "/"
	orders.EXPECT().
		GetByID(gomock.Any(), orderID).
		Return(&domain.Order{ID: orderID}, nil)
	store.EXPECT().
		List(gomock.Any(), prefix).
		Return([]string{prefix + "invoice.pdf", prefix + "packing-slip.pdf"}, nil)

	req := documentRequest(t, http.MethodGet, "/api/v1/orders/"+orderID.String()+"/documents", nil, "orders", orderID, "")
	w := httptest.NewRecorder()
	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                    `json:"success"`
		Data    []handlers.DocumentInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "invoice.pdf", resp.Data[0].Name)
	assert.Equal(t, prefix+"invoice.pdf", resp.Data[0].Key)
}

func TestDocumentHandler_List_Empty(t *testing.T) {
	h, store, orders, _ := newDocumentHandler(t)

	orderID := uuid.New()
	orders.EXPECT().
		GetByID(gomock.Any(), orderID).
		Return(&domain.Order{ID: orderID}, nil)
	store.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return(nil, nil)

	req := documentRequest(t, http.MethodGet, "/api/v1/orders/"+orderID.String()+"/documents", nil, "orders", orderID, "")
	w := httptest.NewRecorder()
	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestDocumentHandler_Download(t *testing.T) {
	h, store, orders, _ := newDocumentHandler(t)

	orderID := uuid.New()
	key := "documents/orders/" + orderID.String() + "/invoice.pdf"
	orders.EXPECT().
		GetByID(gomock.Any(), orderID).
		Return(&domain.Order{ID: orderID}, nil)
	store.EXPECT().
		Exists(gomock.Any(), key).
		Return(true, nil)
	store.EXPECT().
		PresignDownload(gomock.Any(), key, 15*time.Minute).
		Return("https://bucket.s3.amazonaws.com/"+key+"?X-Amz-Signature=abc", nil)

	req := documentRequest(t, http.MethodGet, "/api/v1/orders/"+orderID.String()+"/documents/invoice.pdf", nil, "orders", orderID, "invoice.pdf")
	w := httptest.NewRecorder()
	h.Download(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invoice.pdf", resp.Data["name"])
	assert.True(t, strings.HasPrefix(resp.Data["url"], "https://"))
	assert.Equal(t, "15m0s", resp.Data["expires_in"])
}

func TestDocumentHandler_Download_NotFound(t *testing.T) {
	h, store, orders, _ := newDocumentHandler(t)

	orderID := uuid.New()
	orders.EXPECT().
		GetByID(gomock.Any(), orderID).
		Return(&domain.Order{ID: orderID}, nil)
	store.EXPECT().
		Exists(gomock.Any(), gomock.Any()).
		Return(false, nil)

	req := documentRequest(t, http.MethodGet, "/api/v1/orders/"+orderID.String()+"/documents/ghost.pdf", nil, "orders", orderID, "ghost.pdf")
	w := httptest.NewRecorder()
	h.Download(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Document not found")
}

func TestDocumentHandler_Delete(t *testing.T) {
	h, store, _, suppliers := newDocumentHandler(t)

	supplierID := uuid.New()
	key := "documents/suppliers/" + supplierID.String() + "/contract.pdf"
	suppliers.EXPECT().
		GetByID(gomock.Any(), supplierID).
		Return(&domain.Supplier{ID: supplierID}, nil)
	store.EXPECT().
		Delete(gomock.Any(), key).
		Return(nil)

	req := documentRequest(t, http.MethodDelete, "/api/v1/suppliers/"+supplierID.String()+"/documents/contract.pdf", nil, "suppliers", supplierID, "contract.pdf")
	w := httptest.NewRecorder()
	h.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Document deleted successfully")
}

func TestDocumentHandler_Delete_BadFilename(t *testing.T) {
	h, _, orders, _ := newDocumentHandler(t)

	orderID := uuid.New()
	orders.EXPECT().
		GetByID(gomock.Any(), orderID).
		Return(&domain.Order{ID: orderID}, nil)

	req := documentRequest(t, http.MethodDelete, "/api/v1/orders/"+orderID.String()+"/documents/..", nil, "orders", orderID, "..")
	w := httptest.NewRecorder()
	h.Delete(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid filename")
}
