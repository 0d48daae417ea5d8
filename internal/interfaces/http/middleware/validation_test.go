package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	Quantity int             `json:"quantity" binding:"gt=0"`
	TaxRate  decimal.Decimal `json:"taxRate" binding:"omitempty,taxrate"`
}

type testOrder struct {
	CustomerID string     `json:"customerId" binding:"required,uuid"`
	Items      []testLine `json:"items" binding:"required,min=1,dive"`
}

func bindTestOrder(t *testing.T, body string) (*shared.DomainError, *httptest.ResponseRecorder) {
	t.Helper()
	var captured *shared.DomainError

	router := gin.New()
	router.Use(RequestID())
	router.POST("/orders", func(c *gin.Context) {
		var req testOrder
		if err := c.ShouldBindJSON(&req); err != nil {
			captured = FormatValidationErrors(err)
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return captured, w
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestFormatValidationErrors_FieldPaths(t *testing.T) {
	derr, w := bindTestOrder(t, `{"customerId":"not-a-uuid","items":[{"quantity":0}]}`)

	require.NotNil(t, derr)
	assert.Equal(t, shared.CodeValidation, derr.Code)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fields := map[string]string{}
	for _, d := range derr.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid UUID format", fields["customerId"])
	assert.Equal(t, "Must be greater than 0", fields["items[0].quantity"])

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Errors, 2)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.Error.RequestID)
}

func TestFormatValidationErrors_EmptyItems(t *testing.T) {
	derr, _ := bindTestOrder(t, `{"customerId":"`+uuid.NewString()+`","items":[]}`)

	require.NotNil(t, derr)
	require.Len(t, derr.Details, 1)
	assert.Equal(t, "items", derr.Details[0].Field)
	assert.Equal(t, "Must contain at least 1 item(s)", derr.Details[0].Message)
}

func TestTaxRateRule(t *testing.T) {
	tests := []struct {
		name    string
		taxRate string
		wantErr bool
	}{
		{"whole percentage", `18`, false},
		{"string decimal", `"12.5"`, false},
		{"four decimals", `"7.1234"`, false},
		{"upper bound", `100`, false},
		{"above 100", `"100.5"`, true},
		{"negative", `-1`, true},
		{"five decimals", `"1.23456"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"customerId":"` + uuid.NewString() + `","items":[{"quantity":1,"taxRate":` + tt.taxRate + `}]}`
			derr, w := bindTestOrder(t, body)
			if !tt.wantErr {
				assert.Nil(t, derr)
				assert.Equal(t, http.StatusCreated, w.Code)
				return
			}
			require.NotNil(t, derr)
			require.Len(t, derr.Details, 1)
			assert.Equal(t, "items[0].taxRate", derr.Details[0].Field)
		})
	}
}

func TestTenantUUIDRule(t *testing.T) {
	type holder struct {
		TenantID string `json:"tenantId" binding:"tenant_uuid"`
	}
	tests := []struct {
		value string
		valid bool
	}{
		{uuid.NewString(), true},
		{uuid.Nil.String(), false},
		{"tenant-1", false},
		{strings.ReplaceAll(uuid.NewString(), "-", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&holder{TenantID: tt.value})
			assert.Equal(t, tt.valid, err == nil)
		})
	}
}

func TestFormatValidationErrors_DecodeErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
		wantField   string
	}{
		{"malformed json", `{"customerId":`, "Malformed JSON body", ""},
		{"empty body", ``, "Request body is required", ""},
		{"wrong type", `{"customerId":"` + uuid.NewString() + `","items":[{"quantity":"two"}]}`, "Request validation failed", "items.quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derr, w := bindTestOrder(t, tt.body)

			require.NotNil(t, derr)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantMessage, derr.Message)
			if tt.wantField != "" {
				require.Len(t, derr.Details, 1)
				assert.Equal(t, tt.wantField, derr.Details[0].Field)
				assert.Equal(t, "Must be of type int", derr.Details[0].Message)
			}
		})
	}
}
