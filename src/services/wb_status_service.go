package services

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// EndpointStatus is the probe result for one WB API endpoint.
type EndpointStatus struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Status     string `json:"status"`
	HTTPStatus int    `json:"httpStatus,omitempty"`
	LatencyMs  int64  `json:"latencyMs"`
	Error      string `json:"error,omitempty"`
}

// StatusReport aggregates the probes of one run.
type StatusReport struct {
	CheckedAt time.Time        `json:"checkedAt"`
	Endpoints []EndpointStatus `json:"endpoints"`
}

// WbStatusService probes the WB API endpoints the application depends on.
type WbStatusService struct {
	Client  *http.Client
	BaseURL string
}

func NewWbStatusService(baseURL string) *WbStatusService {
	return &WbStatusService{
		Client:  &http.Client{Timeout: 10 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CheckAll probes every known endpoint. An endpoint counts as UP when it
// answers at all with anything but 5xx; auth errors still prove the service
// is reachable.
func (s *WbStatusService) CheckAll(ctx context.Context) *StatusReport {
	endpoints := []struct {
		name string
		url  string
	}{
		{"Ping", s.BaseURL + "/ping"},
		{"Goods (filter)", s.BaseURL + "/api/v2/list/goods/filter"},
		{"Seller Info", "https://common-api.wildberries.ru/api/v1/seller-info"},
		{"Content API Root", "https://content-api.wildberries.ru"},
		{"Statistics API Root", "https://statistics-api.wildberries.ru"},
		{"Advert API Root", "https://advert-api.wildberries.ru"},
		{"Finance API Root", "https://finance-api.wildberries.ru"},
	}

	report := &StatusReport{CheckedAt: time.Now().UTC()}
	for _, e := range endpoints {
		report.Endpoints = append(report.Endpoints, s.checkEndpoint(ctx, e.name, e.url))
	}
	return report
}

func (s *WbStatusService) checkEndpoint(ctx context.Context, name, endpoint string) EndpointStatus {
	status := EndpointStatus{Name: name, URL: endpoint}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		status.Status = "DOWN"
		status.Error = err.Error()
		return status
	}
	resp, err := s.Client.Do(req)
	status.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		status.Status = "DOWN"
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	status.HTTPStatus = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 500 && resp.StatusCode != http.StatusServiceUnavailable {
		status.Status = "UP"
	} else {
		status.Status = "DOWN"
	}
	return status
}
