// Package backend is the typed HTTP client for the PHP POS backend. Every
// remote entity (orders, bills, tables, prints) lives behind these endpoints;
// this gateway holds no state of its own.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// PHP endpoint names. chnageorder_status.php is the backend's real spelling.
const (
	epOrders       = "order_management.php"
	epOrderByID    = "get_ordersbyid.php"
	epOrderStatus  = "chnageorder_status.php"
	epBills        = "bills_management.php"
	epTables       = "table_management.php"
	epCategories   = "category_management.php"
	epCustomers    = "customer_management.php"
	epPrintKitchen = "print_kitchen_receipt.php"
	epPrintReceipt = "print.php"
)

const maxDiagnosticBody = 512

// ErrMissingBranch blocks any branch-scoped call issued without a branch id.
var ErrMissingBranch = errors.New("branch id is required")

// Scope carries the tenant identifiers required on nearly every call.
type Scope struct {
	Terminal string
	BranchID int64
}

func (s Scope) validate() error {
	if s.BranchID == 0 {
		return ErrMissingBranch
	}
	return nil
}

// APIError is a failed or ambiguous backend response, carrying enough raw
// detail (status, truncated body) to be diagnosable from an operator alert.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status %d, body %q)", e.Endpoint, e.Message, e.StatusCode, e.Body)
}

// Client talks JSON-over-HTTP to the PHP backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a backend client. baseURL must end without a trailing slash.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// do issues one request and decodes the body into a dynamic value. The
// decoded payload is returned even on unexpected statuses so callers can
// attach diagnostics.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body any) (any, error) {
	u := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", endpoint, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: do request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncate(raw),
			Message:    "unexpected status",
		}
	}

	var decoded any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, &APIError{
				Endpoint:   endpoint,
				StatusCode: resp.StatusCode,
				Body:       truncate(raw),
				Message:    "non-JSON response",
			}
		}
	}
	return decoded, nil
}

func truncate(b []byte) string {
	if len(b) > maxDiagnosticBody {
		b = b[:maxDiagnosticBody]
	}
	return string(b)
}

// SuccessOf reads the PHP backend's loosely typed success flag: bool true,
// numeric 1, or the strings "true"/"1" all count.
func SuccessOf(raw any) bool {
	obj, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	switch v := obj["success"].(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case string:
		return v == "true" || v == "1"
	}
	return false
}

// requireSuccess converts a decoded payload without a positive success flag
// into an APIError.
func requireSuccess(endpoint string, raw any) error {
	if SuccessOf(raw) {
		return nil
	}
	body, _ := json.Marshal(raw)
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: http.StatusOK,
		Body:       truncate(body),
		Message:    "backend did not report success",
	}
}

func orderNumber(orderID int64) string {
	return "ORD-" + strconv.FormatInt(orderID, 10)
}

// --- Orders ---

// OrderFilter narrows the order list.
type OrderFilter struct {
	Status   string
	FromDate string
	ToDate   string
}

// ListOrders fetches the branch's orders. The response shape is not
// guaranteed; callers run it through the projection package.
func (c *Client) ListOrders(ctx context.Context, scope Scope, f OrderFilter) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("terminal", scope.Terminal)
	q.Set("branch_id", strconv.FormatInt(scope.BranchID, 10))
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.FromDate != "" {
		q.Set("from_date", f.FromDate)
	}
	if f.ToDate != "" {
		q.Set("to_date", f.ToDate)
	}
	return c.do(ctx, http.MethodGet, epOrders, q, nil)
}

// GetOrder fetches one order by id, items possibly embedded.
func (c *Client) GetOrder(ctx context.Context, scope Scope, orderID int64) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"order_id":  orderID,
		"orderid":   orderNumber(orderID),
		"terminal":  scope.Terminal,
		"branch_id": scope.BranchID,
	}
	return c.do(ctx, http.MethodPost, epOrderByID, nil, body)
}

// StatusUpdate is the order-status mutation payload. Payment fields ride
// along only when a payment settles the order.
type StatusUpdate struct {
	OrderID       int64
	Status        string
	PaymentStatus string
	PaymentMethod string
}

// UpdateOrderStatus advances an order's status on the backend.
func (c *Client) UpdateOrderStatus(ctx context.Context, scope Scope, upd StatusUpdate) error {
	if err := scope.validate(); err != nil {
		return err
	}
	body := map[string]any{
		"order_id":     upd.OrderID,
		"orderid":      orderNumber(upd.OrderID),
		"status":       upd.Status,
		"order_status": upd.Status,
		"terminal":     scope.Terminal,
		"branch_id":    scope.BranchID,
	}
	if upd.PaymentStatus != "" {
		body["payment_status"] = upd.PaymentStatus
	}
	if upd.PaymentMethod != "" {
		body["payment_method"] = upd.PaymentMethod
	}
	raw, err := c.do(ctx, http.MethodPost, epOrderStatus, nil, body)
	if err != nil {
		return err
	}
	return requireSuccess(epOrderStatus, raw)
}

// OrderUpdate is the full-record order update used for edits and table
// transfers. The backend requires the complete money breakdown here.
type OrderUpdate struct {
	OrderID        int64           `json:"order_id"`
	OrderNumber    string          `json:"orderid"`
	TableID        *int64          `json:"table_id"`
	HallID         *int64          `json:"hall_id,omitempty"`
	CustomerName   string          `json:"customer_name,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	GTotalAmount   decimal.Decimal `json:"g_total_amount"`
	NetTotalAmount decimal.Decimal `json:"net_total_amount"`
	Terminal       string          `json:"terminal"`
	BranchID       int64           `json:"branch_id"`
}

// UpdateOrder posts a full order update (table transfer included).
func (c *Client) UpdateOrder(ctx context.Context, scope Scope, upd OrderUpdate) error {
	if err := scope.validate(); err != nil {
		return err
	}
	upd.Terminal = scope.Terminal
	upd.BranchID = scope.BranchID
	if upd.OrderNumber == "" {
		upd.OrderNumber = orderNumber(upd.OrderID)
	}
	raw, err := c.do(ctx, http.MethodPost, epOrders, nil, upd)
	if err != nil {
		return err
	}
	return requireSuccess(epOrders, raw)
}

// DeleteOrder removes an order. The backend refuses completed orders.
func (c *Client) DeleteOrder(ctx context.Context, scope Scope, orderID int64) error {
	if err := scope.validate(); err != nil {
		return err
	}
	body := map[string]any{
		"order_id":  orderID,
		"orderid":   orderNumber(orderID),
		"terminal":  scope.Terminal,
		"branch_id": scope.BranchID,
	}
	raw, err := c.do(ctx, http.MethodDelete, epOrders, nil, body)
	if err != nil {
		return err
	}
	return requireSuccess(epOrders, raw)
}

// --- Bills ---

// FetchBillByOrder asks for the existing bill of an order, if any. It is a
// plain read: order_id only, never any amount field.
func (c *Client) FetchBillByOrder(ctx context.Context, scope Scope, orderID int64) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("order_id", strconv.FormatInt(orderID, 10))
	q.Set("terminal", scope.Terminal)
	q.Set("branch_id", strconv.FormatInt(scope.BranchID, 10))
	return c.do(ctx, http.MethodGet, epBills, q, nil)
}

// CreateBillRequest creates a new bill. The presence of total_amount is the
// backend's create-not-update signal, so this struct is the only place that
// field exists.
type CreateBillRequest struct {
	OrderID       int64           `json:"order_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	Discount      decimal.Decimal `json:"discount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	Terminal      string          `json:"terminal"`
	BranchID      int64           `json:"branch_id"`
}

// CreateBill persists a new bill and returns the raw response for bill-id
// extraction.
func (c *Client) CreateBill(ctx context.Context, scope Scope, req CreateBillRequest) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	req.Terminal = scope.Terminal
	req.BranchID = scope.BranchID
	return c.do(ctx, http.MethodPost, epBills, nil, req)
}

// UpdateBillPaymentRequest mutates payment fields on an existing bill. It has
// no amount-total fields on purpose: sending total_amount here would make the
// backend create a duplicate bill.
type UpdateBillPaymentRequest struct {
	BillID        *int64           `json:"bill_id,omitempty"`
	OrderID       int64            `json:"order_id"`
	PaymentStatus string           `json:"payment_status"`
	PaymentMethod string           `json:"payment_method"`
	CashReceived  *decimal.Decimal `json:"cash_received,omitempty"`
	Change        *decimal.Decimal `json:"change,omitempty"`
	CustomerID    *int64           `json:"customer_id,omitempty"`
	Terminal      string           `json:"terminal"`
	BranchID      int64            `json:"branch_id"`
}

// UpdateBillPayment records a settlement on an existing bill.
func (c *Client) UpdateBillPayment(ctx context.Context, scope Scope, req UpdateBillPaymentRequest) error {
	if err := scope.validate(); err != nil {
		return err
	}
	req.Terminal = scope.Terminal
	req.BranchID = scope.BranchID
	raw, err := c.do(ctx, http.MethodPost, epBills, nil, req)
	if err != nil {
		return err
	}
	return requireSuccess(epBills, raw)
}

// --- Tables ---

// ListTables fetches the branch's tables with their occupancy status.
func (c *Client) ListTables(ctx context.Context, scope Scope) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"terminal":  scope.Terminal,
		"branch_id": scope.BranchID,
	}
	return c.do(ctx, http.MethodPost, epTables, nil, body)
}

// TableUpdate is the full table record required by the backend's table
// update (no partial patches).
type TableUpdate struct {
	TableID     int64  `json:"table_id"`
	HallID      int64  `json:"hall_id"`
	TableNumber string `json:"table_number"`
	Capacity    int64  `json:"capacity"`
	Status      string `json:"status"`
	Terminal    string `json:"terminal"`
	BranchID    int64  `json:"branch_id"`
}

// UpdateTable writes a table's status, carrying the full record forward.
func (c *Client) UpdateTable(ctx context.Context, scope Scope, upd TableUpdate) error {
	if err := scope.validate(); err != nil {
		return err
	}
	upd.Terminal = scope.Terminal
	upd.BranchID = scope.BranchID
	raw, err := c.do(ctx, http.MethodPost, epTables, nil, upd)
	if err != nil {
		return err
	}
	return requireSuccess(epTables, raw)
}

// --- Lookups ---

// ListCategories fetches categories with their kitchen assignments.
func (c *Client) ListCategories(ctx context.Context, scope Scope) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("terminal", scope.Terminal)
	q.Set("branch_id", strconv.FormatInt(scope.BranchID, 10))
	return c.do(ctx, http.MethodGet, epCategories, q, nil)
}

// ListCustomers fetches the branch's customers (credit settlement lookup).
func (c *Client) ListCustomers(ctx context.Context, scope Scope) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("terminal", scope.Terminal)
	q.Set("branch_id", strconv.FormatInt(scope.BranchID, 10))
	return c.do(ctx, http.MethodGet, epCustomers, q, nil)
}

// --- Printing ---

// KitchenPrintRequest dispatches one KOT to one kitchen.
type KitchenPrintRequest struct {
	OrderID   int64  `json:"order_id"`
	KitchenID int64  `json:"kitchen_id"`
	BranchID  int64  `json:"branch_id"`
	Terminal  string `json:"terminal"`
}

// PrintKitchen sends a kitchen order ticket print job. The raw response is
// returned for the dispatcher's three-valued outcome interpretation.
func (c *Client) PrintKitchen(ctx context.Context, scope Scope, req KitchenPrintRequest) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	req.Terminal = scope.Terminal
	req.BranchID = scope.BranchID
	return c.do(ctx, http.MethodPost, epPrintKitchen, nil, req)
}

// ReceiptItem is one printable line on the customer bill.
type ReceiptItem struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// ReceiptPrintRequest dispatches the customer-facing bill receipt.
type ReceiptPrintRequest struct {
	OrderID        int64         `json:"order_id"`
	BillID         *int64        `json:"bill_id,omitempty"`
	ReceiptContent string        `json:"receipt_content"`
	Items          []ReceiptItem `json:"items"`
	Terminal       string        `json:"terminal"`
	BranchID       int64         `json:"branch_id"`
}

// PrintReceipt sends the bill receipt print job.
func (c *Client) PrintReceipt(ctx context.Context, scope Scope, req ReceiptPrintRequest) (any, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	req.Terminal = scope.Terminal
	req.BranchID = scope.BranchID
	return c.do(ctx, http.MethodPost, epPrintReceipt, nil, req)
}
