package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindTarget struct {
	CustomerName string  `json:"customer_name"`
	Amount       float64 `json:"amount"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindTarget
		expectError bool
	}{
		{
			name:     "wrapped body",
			key:      "payment",
			body:     `{"payment": {"customer_name": "Somchai", "amount": 2000}}`,
			expected: bindTarget{CustomerName: "Somchai", Amount: 2000},
		},
		{
			name:     "bare body",
			key:      "payment",
			body:     `{"customer_name": "Malee", "amount": 1500}`,
			expected: bindTarget{CustomerName: "Malee", Amount: 1500},
		},
		{
			name:     "wrapper key absent falls back to bare binding",
			key:      "payment",
			body:     `{"other": "value", "customer_name": "Anong", "amount": 500}`,
			expected: bindTarget{CustomerName: "Anong", Amount: 500},
		},
		{
			name:     "contract wrapper key",
			key:      "contract",
			body:     `{"contract": {"customer_name": "Prasert", "amount": 24000}}`,
			expected: bindTarget{CustomerName: "Prasert", Amount: 24000},
		},
		{
			name:        "bare body with wrong field type",
			key:         "payment",
			body:        `{"customer_name": "Eve", "amount": "invalid"}`,
			expectError: true,
		},
		{
			name:        "wrapped body with wrong field type",
			key:         "payment",
			body:        `{"payment": {"customer_name": "Frank", "amount": "invalid"}}`,
			expectError: true,
		},
		{
			name:        "wrapper key present but not an object",
			key:         "payment",
			body:        `{"payment": "some string"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result bindTarget
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
