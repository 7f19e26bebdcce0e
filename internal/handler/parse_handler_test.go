package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/handler"
	"github.com/gradewise/gradewise-api/internal/service"
	"github.com/gradewise/gradewise-api/pkg/ai"
)

type mockParseService struct {
	parseResp  dto.ParseExamResponse
	parseErr   error
	repairResp dto.RepairJSONResponse
	repairErr  error
}

func (m *mockParseService) ParseExam(_ context.Context, _ dto.ParseExamRequest) (dto.ParseExamResponse, error) {
	if m.parseErr != nil {
		return dto.ParseExamResponse{}, m.parseErr
	}
	return m.parseResp, nil
}

func (m *mockParseService) RepairJSON(_ context.Context, _ dto.RepairJSONRequest) (dto.RepairJSONResponse, error) {
	if m.repairErr != nil {
		return dto.RepairJSONResponse{}, m.repairErr
	}
	return m.repairResp, nil
}

func parseApp(svc *mockParseService) *fiber.App {
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	handler.NewParseHandler(svc, logger).Register(app.Group("/api/v1/ai"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestParseHandler_ParseExamFlatShape(t *testing.T) {
	svc := &mockParseService{parseResp: dto.ParseExamResponse{
		Success:    true,
		Questions:  []dto.ParsedQuestion{{Content: "2+2=?", StandardAnswer: "4", Score: 10}},
		TotalScore: 10,
	}}
	app := parseApp(svc)

	resp := postJSON(t, app, "/api/v1/ai/parse-exam", dto.ParseExamRequest{FileContent: "paper", APIKey: "k"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The intake endpoints answer flat JSON, not the data envelope.
	var body map[string]json.RawMessage
	decodeResponse(t, resp, &body)
	require.Contains(t, body, "success")
	require.Contains(t, body, "questions")
	require.Contains(t, body, "totalScore")
	require.NotContains(t, body, "data")
}

func TestParseHandler_ParseExamEmptyContent(t *testing.T) {
	svc := &mockParseService{parseErr: service.ErrEmptyExamContent}
	app := parseApp(svc)

	resp := postJSON(t, app, "/api/v1/ai/parse-exam", dto.ParseExamRequest{APIKey: "k"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body dto.ParseExamResponse
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.NotEmpty(t, body.Error)
}

func TestParseHandler_ParseExamModelDown(t *testing.T) {
	svc := &mockParseService{parseErr: ai.ErrGenerationFailed}
	app := parseApp(svc)

	resp := postJSON(t, app, "/api/v1/ai/parse-exam", dto.ParseExamRequest{FileContent: "paper", APIKey: "k"})
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestParseHandler_RepairJSONSuccess(t *testing.T) {
	svc := &mockParseService{repairResp: dto.RepairJSONResponse{Success: true, FixedJSON: `{"a":1}`}}
	app := parseApp(svc)

	resp := postJSON(t, app, "/api/v1/ai/repair-json", dto.RepairJSONRequest{BrokenJSON: `{"a":1,}`, APIKey: "k"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.RepairJSONResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, `{"a":1}`, body.FixedJSON)
}

func TestParseHandler_RepairJSONUnrepairable(t *testing.T) {
	svc := &mockParseService{repairErr: ai.ErrRepairFailed}
	app := parseApp(svc)

	resp := postJSON(t, app, "/api/v1/ai/repair-json", dto.RepairJSONRequest{BrokenJSON: "garbage", APIKey: "k"})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body dto.RepairJSONResponse
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.NotEmpty(t, body.Error)
}
