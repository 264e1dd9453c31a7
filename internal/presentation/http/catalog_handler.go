package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	appcatalog "github.com/Zhima-Mochi/minishop-retail/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	domcatalog "github.com/Zhima-Mochi/minishop-retail/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-retail/internal/domain/order"
)

const (
	msgProductNotFound = "Producto no encontrado"
	msgProductUpdated  = "Producto actualizado correctamente"
	msgProductDeleted  = "Producto eliminado correctamente"
	msgOrderPlaced     = "Pedido registrado correctamente"
	msgOrderIncomplete = "Faltan datos del pedido."
)

// CatalogHandler serves products and checkout orders. Field names follow the
// storefront's wire format.
type CatalogHandler struct {
	svc *appcatalog.Service
}

func NewCatalogHandler(svc *appcatalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) Register(rt *Router) {
	for _, p := range []string{"/api/catalog", "/catalog", "/productos"} {
		rt.HandleFunc("GET "+p, h.handleList)
	}
	rt.HandleFunc("GET /api/catalog/{id}", h.handleGet)
	rt.HandleFunc("POST /api/catalog", h.handleCreate)
	rt.HandleFunc("PUT /api/catalog/{id}", h.handleUpdate)
	rt.HandleFunc("DELETE /api/catalog/{id}", h.handleDelete)
	rt.HandleFunc("POST /api/orders", h.handlePlaceOrder)
	rt.HandleFunc("GET /api/orders", h.handleListOrders)
	rt.HandleFunc("GET /health", handleHealth)
}

type productView struct {
	ID        int64     `json:"id_producto"`
	Name      string    `json:"nom_producto"`
	Category  string    `json:"cat_producto"`
	Price     int64     `json:"pre_producto"`
	Stock     int       `json:"sto_producto"`
	Image     *string   `json:"imagen"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newProductView(p domcatalog.Product) productView {
	v := productView{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Image != "" {
		img := p.Image
		v.Image = &img
	}
	return v
}

type productRequest struct {
	Name     string `json:"nom_producto"`
	Category string `json:"cat_producto"`
	Price    int64  `json:"pre_producto"`
	Stock    int    `json:"sto_producto"`
	Image    string `json:"imagen"`
}

func (p productRequest) draft() domcatalog.Draft {
	return domcatalog.Draft{Name: p.Name, Category: p.Category, Price: p.Price, Stock: p.Stock, Image: p.Image}
}

type productMessage struct {
	Message string      `json:"message"`
	Product productView `json:"product"`
}

type orderView struct {
	ID           string          `json:"id_order"`
	CustomerName string          `json:"cliente_nombre"`
	Total        float64         `json:"total"`
	Details      json.RawMessage `json:"detalles"`
	CreatedAt    time.Time       `json:"fecha"`
}

func newOrderView(o *domorder.Order) orderView {
	return orderView{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Total:        o.Total,
		Details:      o.Details,
		CreatedAt:    o.CreatedAt,
	}
}

type orderRequest struct {
	CustomerName string          `json:"cliente_nombre"`
	Total        float64         `json:"total"`
	Details      json.RawMessage `json:"detalles"`
}

type orderPlaced struct {
	Message string    `json:"message"`
	Order   orderView `json:"pedido"`
}

func (h *CatalogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error al obtener productos")
		return
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, newProductView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err, "Error al obtener producto")
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (h *CatalogHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Message: "Error al crear producto", Error: err.Error()})
		return
	}
	p, err := h.svc.Create(r.Context(), req.draft())
	if err != nil {
		writeCatalogError(w, err, "Error al crear producto")
		return
	}
	writeJSON(w, http.StatusCreated, newProductView(p))
}

func (h *CatalogHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Message: "Error al actualizar producto", Error: err.Error()})
		return
	}
	p, err := h.svc.Update(r.Context(), id, req.draft())
	if err != nil {
		writeCatalogError(w, err, "Error al actualizar producto")
		return
	}
	writeJSON(w, http.StatusOK, productMessage{Message: msgProductUpdated, Product: newProductView(p)})
}

func (h *CatalogHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeCatalogError(w, err, "Error al eliminar producto")
		return
	}
	writeMessage(w, http.StatusOK, msgProductDeleted)
}

func (h *CatalogHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeMessage(w, http.StatusBadRequest, msgOrderIncomplete)
		return
	}
	o, err := h.svc.PlaceOrder(r.Context(), appcatalog.PlaceOrderInput{
		CustomerName: req.CustomerName,
		Total:        req.Total,
		Details:      req.Details,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, orderPlaced{Message: msgOrderPlaced, Order: newOrderView(o)})
	case errors.Is(err, apperr.ErrValidation):
		writeMessage(w, http.StatusBadRequest, msgOrderIncomplete)
	default:
		writeMessage(w, http.StatusInternalServerError, "Error al crear pedido")
	}
}

func (h *CatalogHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOrders(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Error al listar pedidos")
		return
	}
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderView(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusNotFound, msgProductNotFound)
		return 0, false
	}
	return id, true
}

func writeCatalogError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domcatalog.ErrNotFound):
		writeMessage(w, http.StatusNotFound, msgProductNotFound)
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, message{Message: fallback, Error: err.Error()})
	default:
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}
