package city

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/citypulse/citypulse/internal/geo"
)

var conditions = []Condition{ConditionClear, ConditionCloudy, ConditionRainy, ConditionSnowy, ConditionStormy}

var congestionLevels = []CongestionLevel{CongestionLow, CongestionModerate, CongestionHigh, CongestionSevere}

// Generator produces randomized stand-in data shaped identically to
// real provider output. It is used whenever a provider fails outright
// or returns empty history/forecast data.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator seeded for reproducibility in tests.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// intn returns a random int in [min, min+span).
func (g *Generator) intn(min, span int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(span) + min
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// Traffic generates a fresh traffic snapshot with routes laid out
// around the given city center.
func (g *Generator) Traffic(center geo.Point) *Traffic {
	routes := make([]Route, 0, 2)
	for i := 0; i < 2; i++ {
		dLat := g.float()*0.05 + 0.01
		dLng := g.float()*0.05 + 0.01
		routes = append(routes, Route{
			Coordinates: [][2]float64{
				{center.Lat, center.Lng},
				{center.Lat + dLat, center.Lng + dLng},
			},
			Congestion: g.float(),
		})
	}

	return &Traffic{
		AvgSpeed:        g.intn(20, 40),
		CongestionLevel: congestionLevels[g.intn(0, len(congestionLevels))],
		TravelTime:      g.intn(10, 30),
		Routes:          routes,
		Source:          SourceSynthetic,
	}
}

// Forecast generates a 5-day forecast starting today, labeled by short
// weekday name.
func (g *Generator) Forecast() []ForecastDay {
	now := time.Now()
	forecast := make([]ForecastDay, 0, 5)
	for i := 0; i < 5; i++ {
		forecast = append(forecast, ForecastDay{
			Date:      now.AddDate(0, 0, i).Format("Mon"),
			Temp:      g.intn(5, 30),
			Condition: conditions[g.intn(0, len(conditions))],
		})
	}
	return forecast
}

// Weather generates plausible current conditions plus a forecast.
func (g *Generator) Weather() *Weather {
	cond := conditions[g.intn(0, len(conditions))]

	return &Weather{
		Temperature: g.intn(5, 30),
		Description: strings.ToUpper(string(cond)[:1]) + string(cond)[1:],
		Condition:   cond,
		Humidity:    g.intn(40, 40),
		WindSpeed:   g.intn(5, 30),
		Visibility:  math.Round((g.float()*10+5)*10) / 10,
		Pressure:    g.intn(1000, 50),
		Forecast:    g.Forecast(),
		Source:      SourceSynthetic,
	}
}

// PollutionHistory generates 24 hourly samples labeled 0:00 .. 23:00.
func (g *Generator) PollutionHistory() PollutionHistory {
	h := PollutionHistory{
		Labels: make([]string, 0, 24),
		PM25:   make([]int, 0, 24),
		PM10:   make([]int, 0, 24),
		NO2:    make([]int, 0, 24),
	}
	for i := 0; i < 24; i++ {
		h.Labels = append(h.Labels, strconv.Itoa(i)+":00")
		h.PM25 = append(h.PM25, g.intn(10, 50))
		h.PM10 = append(h.PM10, g.intn(20, 100))
		h.NO2 = append(h.NO2, g.intn(10, 80))
	}
	return h
}

// Pollution generates current concentrations plus hourly history.
func (g *Generator) Pollution() *Pollution {
	return &Pollution{
		PM25:    g.intn(10, 50),
		PM10:    g.intn(20, 100),
		NO2:     g.intn(10, 80),
		O3:      g.intn(20, 60),
		History: g.PollutionHistory(),
		Source:  SourceSynthetic,
	}
}

// AQIHistory generates 7 daily samples ending today, labeled by short
// month and day.
func (g *Generator) AQIHistory() AQIHistory {
	now := time.Now()
	h := AQIHistory{
		Labels: make([]string, 0, 7),
		AQI:    make([]int, 0, 7),
	}
	for i := 0; i < 7; i++ {
		h.Labels = append(h.Labels, now.AddDate(0, 0, -(6 - i)).Format("Jan 2"))
		h.AQI = append(h.AQI, g.intn(20, 200))
	}
	return h
}

// AQI generates an air quality snapshot with a status derived from the
// generated index value.
func (g *Generator) AQI() *AQI {
	aqi := g.intn(20, 200)

	return &AQI{
		AQI:     aqi,
		Status:  AQIStatus(aqi),
		PM25:    g.intn(10, 50),
		PM10:    g.intn(20, 100),
		NO2:     g.intn(10, 80),
		O3:      g.intn(20, 60),
		History: g.AQIHistory(),
		Source:  SourceSynthetic,
	}
}
