package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerTestSuite struct {
	suite.Suite

	out *bytes.Buffer
	log *logger
}

func (suite *LoggerTestSuite) SetupTest() {
	suite.out = &bytes.Buffer{}
	suite.log = newLogger(suite.out)
}

func (suite *LoggerTestSuite) Records() []map[string]interface{} {
	rv := []map[string]interface{}{}

	for _, line := range strings.Split(strings.TrimSpace(suite.out.String()), "\n") {
		record := map[string]interface{}{}

		suite.NoError(json.Unmarshal([]byte(line), &record))

		rv = append(rv, record)
	}

	return rv
}

func (suite *LoggerTestSuite) TestLookupError() {
	suite.log.LookupError("not-an-ip", "iplocate", errors.New("invalid ip"))

	record := suite.Records()[0]

	suite.Equal("lookup", record["event_name"])
	suite.Equal("error", record["level"])
	suite.Equal("iplocate", record["provider"])
	suite.Equal("not-an-ip", record["ip"])
	suite.Equal("invalid ip", record["error"])
	suite.NotNil(record["time"])
}

func (suite *LoggerTestSuite) TestUpdate() {
	suite.log.UpdateInfo("maxmind", "db has been reloaded")
	suite.log.UpdateError("maxmind", errors.New("broken"))

	records := suite.Records()

	suite.Len(records, 2)
	suite.Equal("update", records[0]["event_name"])
	suite.Equal("db has been reloaded", records[0]["message"])
	suite.Equal("broken", records[1]["error"])
}

func TestLogger(t *testing.T) {
	suite.Run(t, &LoggerTestSuite{})
}
