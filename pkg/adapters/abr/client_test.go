package abr_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/loanflow/pkg/adapters/abr"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeDetails = `{"Abn":"51824753556","AbnStatus":"Active","AbnStatusEffectiveFrom":"2012-03-01",
"AddressPostcode":"2000","AddressState":"NSW","BusinessName":["Acme Trucks"],
"EntityName":"Acme Haulage Pty Ltd","EntityTypeCode":"PRV","Gst":"2012-03-01","Message":""}`

const missingDetails = `{"Abn":"","AbnStatus":"","EntityName":"","Gst":null,"Message":"No record found"}`

const acmeNames = `{"Message":"","Names":[
{"Abn":"51824753556","AbnStatus":"0000000001","IsCurrent":true,"Name":"Acme Haulage Pty Ltd","Postcode":"2000","Score":100,"State":"NSW"},
{"Abn":"51824753556","AbnStatus":"0000000001","IsCurrent":true,"Name":"Acme Trucks","Postcode":"2000","Score":94,"State":"NSW"},
{"Abn":"84022765333","AbnStatus":"0000000002","IsCurrent":true,"Name":"Acme Cancelled Holdings","Postcode":"2000","Score":88,"State":"NSW"},
{"Abn":"95471173493","AbnStatus":"0000000001","IsCurrent":true,"Name":"Acme Landscaping","Postcode":"3000","Score":80,"State":"VIC"}]}`

func fakeRegister(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-guid", r.URL.Query().Get("guid"))
		cb := r.URL.Query().Get("callback")
		var body string
		switch r.URL.Path {
		case "/AbnDetails.aspx":
			body = missingDetails
			if r.URL.Query().Get("abn") == "51824753556" {
				body = acmeDetails
			}
		case "/MatchingNames.aspx":
			body = `{"Message":"","Names":[]}`
			if strings.Contains(strings.ToLower(r.URL.Query().Get("name")), "acme") {
				body = acmeNames
			}
		default:
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "%s(%s)", cb, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Contract(t *testing.T) {
	srv := fakeRegister(t)
	tests.RegistryContractTest(t, abr.New("test-guid", abr.WithBaseURL(srv.URL)), "51824753556", "Acme Haulage")
}

func TestClient_LookupMapsFields(t *testing.T) {
	srv := fakeRegister(t)
	entry, err := abr.New("test-guid", abr.WithBaseURL(srv.URL)).Lookup(context.Background(), "51 824 753 556")
	require.NoError(t, err)

	assert.Equal(t, "Acme Haulage Pty Ltd", entry.LegalName)
	assert.Equal(t, domain.EntityCompany, entry.EntityClass)
	assert.True(t, entry.Active())
	assert.True(t, entry.GSTRegistered)
	assert.Equal(t, time.Date(2012, 3, 1, 0, 0, 0, 0, time.UTC), entry.RegistrationDate)
	assert.Equal(t, "NSW", entry.Jurisdiction)
}

func TestClient_LookupInvalidChecksumSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ }))
	defer srv.Close()

	_, err := abr.New("g", abr.WithBaseURL(srv.URL)).Lookup(context.Background(), "51824753557")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.Zero(t, calls)
}

func TestClient_SearchDedupesAndFilters(t *testing.T) {
	srv := fakeRegister(t)
	matches, err := abr.New("test-guid", abr.WithBaseURL(srv.URL)).SearchByName(context.Background(), "Acme", 3)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "51824753556", matches[0].ABN)
	assert.Equal(t, "95471173493", matches[1].ABN)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/AbnDetails.aspx" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("callback(<html>)"))
	}))
	defer srv.Close()
	c := abr.New("g", abr.WithBaseURL(srv.URL))

	_, err := c.Lookup(context.Background(), "51824753556")
	assert.ErrorContains(t, err, "status 502")

	_, err = c.SearchByName(context.Background(), "acme", 3)
	assert.ErrorIs(t, err, abr.ErrMalformed)
}

func TestEntityClass(t *testing.T) {
	assert.Equal(t, domain.EntitySoleTrader, abr.EntityClass("IND"))
	assert.Equal(t, domain.EntityCompany, abr.EntityClass("prv"))
	assert.Equal(t, domain.EntityTrust, abr.EntityClass("DIT"))
	assert.Equal(t, domain.EntityOther, abr.EntityClass("SGE"))
}
