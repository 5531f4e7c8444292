package maplib_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/9seconds/ipmap/maplib"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MapperTestSuite struct {
	suite.Suite

	m            *maplib.Mapper
	providerMock *ProviderMock
	loggerMock   *LoggerMock
}

func (suite *MapperTestSuite) SetupTest() {
	suite.providerMock = &ProviderMock{}
	suite.loggerMock = &LoggerMock{}

	suite.providerMock.On("Name").Return("providerMock").Maybe()
	suite.loggerMock.On("LookupError", mock.Anything, mock.Anything, mock.Anything).Maybe()
	suite.loggerMock.On("LookupNotFound", mock.Anything, mock.Anything).Maybe()

	m, err := maplib.NewMapper(suite.providerMock, suite.loggerMock, maplib.Opts{
		BatchLimit:     100,
		ChunkSize:      10,
		WorkerPoolSize: 20,
	})
	if err != nil {
		panic(err)
	}

	suite.m = m
}

func (suite *MapperTestSuite) TearDownTest() {
	suite.m.Shutdown()

	suite.providerMock.AssertExpectations(suite.T())
	suite.loggerMock.AssertExpectations(suite.T())
}

func (suite *MapperTestSuite) makeKeys(count int) []string {
	keys := make([]string, count)

	for i := range keys {
		keys[i] = fmt.Sprintf("10.0.%d.%d", i/256, i%256)
		suite.providerMock.
			On("Lookup", mock.Anything, keys[i]).
			Return(makeLookupResult(float64(i), -float64(i), keys[i]), nil)
	}

	return keys
}

func (suite *MapperTestSuite) TestOrderIsPreserved() {
	keys := suite.makeKeys(23)

	outcomes, err := suite.m.LookupBatch(context.Background(), keys)

	suite.NoError(err)
	suite.Len(outcomes, len(keys))

	for i, v := range outcomes {
		suite.Equal(keys[i], v.Key)
		suite.True(v.OK())
		suite.Equal(keys[i], v.Location.City)
		suite.Equal(float64(i), v.Location.Latitude)
		suite.Equal(-float64(i), v.Location.Longitude)
		suite.Equal("Test Region", v.Location.Region)
		suite.Equal("Etc/UTC", v.Location.Timezone)
	}
}

func (suite *MapperTestSuite) TestChunkSizeIsTransparent() {
	keys := suite.makeKeys(23)

	byOne, err := suite.m.Process(context.Background(), keys, 1)

	suite.NoError(err)

	byTen, err := suite.m.Process(context.Background(), keys, 10)

	suite.NoError(err)
	suite.Equal(byOne, byTen)

	suite.providerMock.AssertNumberOfCalls(suite.T(), "Lookup", 2*len(keys))
}

func (suite *MapperTestSuite) TestChunksAreBounded() {
	const chunkSize = 3

	keys := make([]string, 23)
	chunkOf := map[string]int{}

	for i := range keys {
		keys[i] = fmt.Sprintf("10.1.0.%d", i)
		chunkOf[keys[i]] = i / chunkSize
	}

	var (
		inFlight    int32
		maxInFlight int32
		mutex       sync.Mutex
		finished    int
		violations  []string
	)

	suite.providerMock.
		On("Lookup", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			key := args.String(1)

			mutex.Lock()
			if finished < chunkOf[key]*chunkSize {
				violations = append(violations, key)
			}
			mutex.Unlock()

			current := atomic.AddInt32(&inFlight, 1)

			for {
				seen := atomic.LoadInt32(&maxInFlight)
				if current <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, current) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)

			atomic.AddInt32(&inFlight, -1)

			mutex.Lock()
			finished++
			mutex.Unlock()
		}).
		Return(makeLookupResult(1, 1, ""), nil)

	outcomes, err := suite.m.Process(context.Background(), keys, chunkSize)

	suite.NoError(err)
	suite.Len(outcomes, len(keys))
	suite.LessOrEqual(atomic.LoadInt32(&maxInFlight), int32(chunkSize))
	suite.Empty(violations)
	suite.Equal(len(keys), finished)
}

func (suite *MapperTestSuite) TestEmptyBatch() {
	outcomes, err := suite.m.LookupBatch(context.Background(), []string{})

	suite.NoError(err)
	suite.Empty(outcomes)
}

func (suite *MapperTestSuite) TestBatchLimit() {
	keys := make([]string, 150)

	for i := range keys {
		keys[i] = "127.0.0.1"
	}

	_, err := suite.m.LookupBatch(context.Background(), keys)

	limitErr := &maplib.BatchLimitError{}

	suite.True(errors.Is(err, maplib.ErrInvalidBatch))
	suite.True(errors.As(err, &limitErr))
	suite.Equal(100, limitErr.Limit)
	suite.Equal(150, limitErr.Received)
	suite.Contains(err.Error(), "limit: 100, received: 150")
	suite.providerMock.AssertNumberOfCalls(suite.T(), "Lookup", 0)
}

func (suite *MapperTestSuite) TestBatchLimitExact() {
	keys := suite.makeKeys(100)

	outcomes, err := suite.m.LookupBatch(context.Background(), keys)

	suite.NoError(err)
	suite.Len(outcomes, 100)
}

func (suite *MapperTestSuite) TestMixedOutcomes() {
	suite.providerMock.
		On("Lookup", mock.Anything, "8.8.8.8").
		Return(makeLookupResult(37.751, -97.822, "Mountain View"), nil).
		Once()
	suite.providerMock.
		On("Lookup", mock.Anything, "not-an-ip").
		Return(maplib.ProviderLookupResult{}, errors.New("invalid ip")).
		Once()
	suite.providerMock.
		On("Lookup", mock.Anything, "1.1.1.1").
		Return(makeLookupResult(-33.494, 143.2104, ""), nil).
		Once()
	suite.loggerMock.
		On("LookupError", "not-an-ip", "providerMock", mock.Anything).
		Once()

	outcomes, err := suite.m.Process(context.Background(),
		[]string{"8.8.8.8", "not-an-ip", "1.1.1.1"}, 2)

	suite.NoError(err)
	suite.Len(outcomes, 3)

	suite.Equal("8.8.8.8", outcomes[0].Key)
	suite.True(outcomes[0].OK())
	suite.Equal(37.751, outcomes[0].Location.Latitude)
	suite.Equal(-97.822, outcomes[0].Location.Longitude)

	suite.Equal("not-an-ip", outcomes[1].Key)
	suite.Equal(maplib.FailureLookupError, outcomes[1].Failure)
	suite.EqualError(outcomes[1].Err, "invalid ip")

	suite.Equal("1.1.1.1", outcomes[2].Key)
	suite.True(outcomes[2].OK())
	suite.Equal(-33.494, outcomes[2].Location.Latitude)
	suite.Equal(143.2104, outcomes[2].Location.Longitude)
}

func (suite *MapperTestSuite) TestNotFound() {
	lat := 10.0
	lon := 20.0

	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.1").
		Return(maplib.ProviderLookupResult{Latitude: &lat, City: "x"}, nil).
		Once()
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.2").
		Return(maplib.ProviderLookupResult{Longitude: &lon}, nil).
		Once()
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.3").
		Return(maplib.ProviderLookupResult{}, nil).
		Once()

	outcomes, err := suite.m.LookupBatch(context.Background(),
		[]string{"10.0.0.1", "10.0.0.2", "10.0.0.3"})

	suite.NoError(err)

	for _, v := range outcomes {
		suite.Equal(maplib.FailureNotFound, v.Failure)
		suite.NoError(v.Err)
		suite.Equal(maplib.Location{}, v.Location)
	}
}

func (suite *MapperTestSuite) TestZeroCoordinatesAreFound() {
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.1").
		Return(makeLookupResult(0, 0, "Null Island"), nil).
		Once()

	outcome, err := suite.m.Lookup(context.Background(), "10.0.0.1")

	suite.NoError(err)
	suite.True(outcome.OK())
	suite.Equal("Null Island", outcome.Location.City)
}

func (suite *MapperTestSuite) TestPanicIsIsolated() {
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.1").
		Return(makeLookupResult(1, 1, ""), nil).
		Once()
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.2").
		Run(func(args mock.Arguments) {
			panic("boom")
		}).
		Return(maplib.ProviderLookupResult{}, nil).
		Once()

	outcomes, err := suite.m.LookupBatch(context.Background(),
		[]string{"10.0.0.1", "10.0.0.2"})

	suite.NoError(err)
	suite.True(outcomes[0].OK())
	suite.Equal(maplib.FailureLookupError, outcomes[1].Failure)
	suite.Contains(outcomes[1].Err.Error(), "boom")
}

func (suite *MapperTestSuite) TestDeadline() {
	release := make(chan struct{})
	defer close(release)

	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.1").
		Return(makeLookupResult(1, 1, ""), nil).
		Once()
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.2").
		Run(func(args mock.Arguments) {
			<-release
		}).
		Return(makeLookupResult(2, 2, ""), nil).
		Once()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	outcomes, err := suite.m.Process(ctx,
		[]string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}, 2)

	suite.NoError(err)
	suite.WithinDuration(started, time.Now(), time.Second)
	suite.Len(outcomes, 4)

	suite.True(outcomes[0].OK())

	for i, key := range []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		suite.Equal(key, outcomes[i+1].Key)
		suite.Equal(maplib.FailureLookupError, outcomes[i+1].Failure)
		suite.True(errors.Is(outcomes[i+1].Err, context.DeadlineExceeded))
	}
}

func (suite *MapperTestSuite) TestInvalidChunkSize() {
	_, err := suite.m.Process(context.Background(), []string{"127.0.0.1"}, 0)

	suite.True(errors.Is(err, maplib.ErrInvalidChunkSize))
}

func (suite *MapperTestSuite) TestShutdown() {
	suite.m.Shutdown()

	_, err := suite.m.LookupBatch(context.Background(), []string{"127.0.0.1"})

	suite.True(errors.Is(err, maplib.ErrMapperShutdown))

	_, err = suite.m.Lookup(context.Background(), "127.0.0.1")

	suite.True(errors.Is(err, maplib.ErrMapperShutdown))
}

func (suite *MapperTestSuite) TestShutdownOfflineProvider() {
	offline := &OfflineProviderMock{}

	offline.On("Name").Return("offlineMock").Maybe()
	offline.On("Shutdown").Once()

	m, err := maplib.NewMapper(offline, suite.loggerMock, maplib.Opts{})

	suite.NoError(err)

	m.Shutdown()
	m.Shutdown()

	offline.AssertExpectations(suite.T())
}

func (suite *MapperTestSuite) TestUsageStats() {
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.1").
		Return(makeLookupResult(1, 1, ""), nil).
		Once()
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.2").
		Return(maplib.ProviderLookupResult{}, nil).
		Once()
	suite.providerMock.
		On("Lookup", mock.Anything, "10.0.0.3").
		Return(maplib.ProviderLookupResult{}, errors.New("failed")).
		Once()

	_, err := suite.m.LookupBatch(context.Background(),
		[]string{"10.0.0.1", "10.0.0.2", "10.0.0.3"})

	suite.NoError(err)

	stats := suite.m.UsageStats()

	suite.Len(stats, 1)

	data, err := json.Marshal(stats[0])

	suite.NoError(err)

	raw := usageStatsJSON{}

	suite.NoError(json.Unmarshal(data, &raw))
	suite.Equal("providerMock", raw.Name)
	suite.EqualValues(1, raw.SuccessCount)
	suite.EqualValues(1, raw.NotFoundCount)
	suite.EqualValues(1, raw.FailureCount)
	suite.NotZero(raw.LastUsed)
}

func TestMapper(t *testing.T) {
	suite.Run(t, &MapperTestSuite{})
}
