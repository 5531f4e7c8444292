package providers_test

import (
	"net/http"
	"time"

	"github.com/9seconds/ipmap/maplib"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"
)

type ProviderTestSuite struct {
	suite.Suite

	http maplib.HTTPClient
}

func (suite *ProviderTestSuite) SetupTest() {
	suite.http = maplib.NewHTTPClient(&http.Client{},
		"test-agent",
		100,
		time.Millisecond,
		time.Minute)
}

type MockedProviderTestSuite struct {
	ProviderTestSuite
}

func (suite *MockedProviderTestSuite) SetupSuite() {
	httpmock.Activate()
}

func (suite *MockedProviderTestSuite) TearDownSuite() {
	httpmock.DeactivateAndReset()
}

func (suite *MockedProviderTestSuite) TearDownTest() {
	httpmock.Reset()
}
