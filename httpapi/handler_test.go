package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xraph/rebate"
	"github.com/xraph/rebate/agency"
	"github.com/xraph/rebate/customer"
	"github.com/xraph/rebate/httpapi"
	"github.com/xraph/rebate/relation"
	"github.com/xraph/rebate/store/memory"
	"github.com/xraph/rebate/talent"
	"github.com/xraph/rebate/types"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T) (*rebate.Engine, *httptest.Server) {
	t.Helper()
	eng := rebate.New(memory.New())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(httpapi.NewHandler(eng))
	t.Cleanup(func() {
		srv.Close()
		_ = eng.Stop()
	})
	return eng, srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, envelope) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, env
}

func TestBindAgencyEndpoint(t *testing.T) {
	ctx := context.Background()
	eng, srv := newTestServer(t)

	err := eng.CreateAgency(ctx, &agency.Agency{
		ID:   "agency-01",
		Name: "Starlight",
		Platforms: map[string]agency.PlatformConfig{
			"douyin": {BaseRebate: types.Percent(8)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.CreateTalent(ctx, &talent.Talent{OneID: "one-1", Platform: "douyin"}); err != nil {
		t.Fatal(err)
	}

	t.Run("success envelope", func(t *testing.T) {
		status, env := post(t, srv, "/rebate/bindAgency",
			`{"platform":"douyin","agencyId":"agency-01","items":[{"oneId":"one-1"}]}`)
		if status != http.StatusOK {
			t.Fatalf("status: %d", status)
		}
		if !env.Success {
			t.Fatalf("envelope: %+v", env)
		}

		var result types.BatchResult
		if err := json.Unmarshal(env.Data, &result); err != nil {
			t.Fatal(err)
		}
		if result.Succeeded != 1 {
			t.Errorf("result: %+v", result)
		}
	})

	t.Run("validation maps to 400", func(t *testing.T) {
		status, env := post(t, srv, "/rebate/bindAgency",
			`{"platform":"","agencyId":"agency-01","items":[{"oneId":"one-1"}]}`)
		if status != http.StatusBadRequest {
			t.Fatalf("status: %d", status)
		}
		if env.Success || env.Message == "" {
			t.Fatalf("envelope: %+v", env)
		}
	})

	t.Run("unknown agency maps to 404", func(t *testing.T) {
		status, env := post(t, srv, "/rebate/bindAgency",
			`{"platform":"douyin","agencyId":"ghost","items":[{"oneId":"one-1"}]}`)
		if status != http.StatusNotFound {
			t.Fatalf("status: %d", status)
		}
		if env.Success {
			t.Fatalf("envelope: %+v", env)
		}
	})

	t.Run("malformed JSON maps to 400", func(t *testing.T) {
		status, env := post(t, srv, "/rebate/bindAgency", `{"platform":`)
		if status != http.StatusBadRequest {
			t.Fatalf("status: %d", status)
		}
		if env.Success {
			t.Fatalf("envelope: %+v", env)
		}
	})

	t.Run("trailing JSON values map to 400", func(t *testing.T) {
		status, _ := post(t, srv, "/rebate/bindAgency",
			`{"platform":"douyin","agencyId":"agency-01","items":[{"oneId":"one-1"}]} {"extra":1}`)
		if status != http.StatusBadRequest {
			t.Fatalf("status: %d", status)
		}
	})
}

func TestBatchEndpointPartialFailureIs200(t *testing.T) {
	ctx := context.Background()
	eng, srv := newTestServer(t)

	if err := eng.CreateCustomer(ctx, &customer.Customer{ID: "cust-1"}); err != nil {
		t.Fatal(err)
	}
	if err := eng.CreateTalent(ctx, &talent.Talent{OneID: "one-1", Platform: "douyin"}); err != nil {
		t.Fatal(err)
	}
	err := eng.CreateRelation(ctx, &relation.Relation{
		CustomerID:  "cust-1",
		TalentOneID: "one-1",
		Platform:    "douyin",
	})
	if err != nil {
		t.Fatal(err)
	}

	status, env := post(t, srv, "/rebate/batchUpdateCustomerRebate",
		`{"customerId":"cust-1","platform":"douyin","items":[
			{"talentOneId":"one-1","enabled":true,"rate":12},
			{"talentOneId":"no-relation","enabled":true,"rate":12}
		]}`)
	if status != http.StatusOK {
		t.Fatalf("per-item failures must not change the status, got %d", status)
	}
	if !env.Success {
		t.Fatalf("envelope: %+v", env)
	}

	var result types.BatchResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("result: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].OneID != "no-relation" {
		t.Errorf("errors: %+v", result.Errors)
	}
}

func TestGetCustomerRebateEndpoint(t *testing.T) {
	ctx := context.Background()
	eng, srv := newTestServer(t)

	if err := eng.CreateCustomer(ctx, &customer.Customer{ID: "cust-1", Code: "ACME"}); err != nil {
		t.Fatal(err)
	}
	err := eng.CreateTalent(ctx, &talent.Talent{
		OneID:    "one-1",
		Platform: "douyin",
		CurrentRebate: &talent.CurrentRebate{
			Rate:   types.Percent(8),
			Source: talent.SourceAgency,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = eng.CreateRelation(ctx, &relation.Relation{
		CustomerID:  "cust-1",
		TalentOneID: "one-1",
		Platform:    "douyin",
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("resolves by code", func(t *testing.T) {
		status, env := post(t, srv, "/rebate/getCustomerRebate",
			`{"customerId":"ACME","talentOneId":"one-1","platform":"douyin"}`)
		if status != http.StatusOK || !env.Success {
			t.Fatalf("status %d, envelope %+v", status, env)
		}

		var view rebate.CustomerRebateView
		if err := json.Unmarshal(env.Data, &view); err != nil {
			t.Fatal(err)
		}
		if view.CustomerID != "cust-1" {
			t.Errorf("customer id: got %s", view.CustomerID)
		}
		if !view.Effective.Rate.Equal(types.Percent(8)) {
			t.Errorf("effective rate: got %s", view.Effective.Rate)
		}
	})

	t.Run("unknown pair maps to 404", func(t *testing.T) {
		status, _ := post(t, srv, "/rebate/getCustomerRebate",
			`{"customerId":"cust-1","talentOneId":"ghost","platform":"douyin"}`)
		if status != http.StatusNotFound {
			t.Fatalf("status: %d", status)
		}
	})
}

func TestCustomBasePath(t *testing.T) {
	eng := rebate.New(memory.New())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = eng.Stop() })

	srv := httptest.NewServer(httpapi.NewHandler(eng, httpapi.WithBasePath("api/v1/rates")))
	t.Cleanup(srv.Close)

	status, _ := post(t, srv, "/api/v1/rates/compare", `{"platform":""}`)
	if status != http.StatusBadRequest {
		t.Fatalf("status: %d", status)
	}

	// The default prefix is not mounted.
	resp, err := http.Post(srv.URL+"/rebate/compare", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}
