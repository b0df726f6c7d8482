package city

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionClear  Condition = "clear"
	ConditionCloudy Condition = "cloudy"
	ConditionRainy  Condition = "rainy"
	ConditionSnowy  Condition = "snowy"
	ConditionStormy Condition = "stormy"
)

// CongestionLevel describes overall road congestion for a city.
type CongestionLevel string

const (
	CongestionLow      CongestionLevel = "Low"
	CongestionModerate CongestionLevel = "Moderate"
	CongestionHigh     CongestionLevel = "High"
	CongestionSevere   CongestionLevel = "Severe"
)

// Source tags whether a snapshot section came from a live provider or
// from the synthetic generator.
type Source string

const (
	SourceLive      Source = "live"
	SourceSynthetic Source = "synthetic"
)

// Route is a single road segment with a congestion factor in [0,1].
type Route struct {
	Coordinates [][2]float64 `json:"coordinates"` // lat,lng pairs
	Congestion  float64      `json:"congestion"`
}

// Traffic holds the per-city traffic view. Never cached as a validity
// condition; regenerated fresh on every selection.
type Traffic struct {
	AvgSpeed        int             `json:"avgSpeed"` // km/h
	CongestionLevel CongestionLevel `json:"congestionLevel"`
	TravelTime      int             `json:"travelTime"` // minutes
	Routes          []Route         `json:"routes"`
	Source          Source          `json:"source"`
}

// ForecastDay is one forecast entry, labeled by short weekday name.
type ForecastDay struct {
	Date      string    `json:"date"`
	Temp      int       `json:"temp"`
	Condition Condition `json:"condition"`
}

// Weather holds current conditions plus an up-to-5-day forecast.
type Weather struct {
	Temperature int           `json:"temperature"` // °C
	Description string        `json:"description"`
	Condition   Condition     `json:"condition"`
	Humidity    int           `json:"humidity"`   // percent
	WindSpeed   int           `json:"windSpeed"`  // km/h
	Visibility  float64       `json:"visibility"` // km, one decimal
	Pressure    int           `json:"pressure"`   // hPa
	Forecast    []ForecastDay `json:"forecast"`
	Source      Source        `json:"source"`
}

// PollutionHistory holds 24h of hourly samples. The label slice and
// every value slice are always the same length.
type PollutionHistory struct {
	Labels []string `json:"labels"`
	PM25   []int    `json:"pm25"`
	PM10   []int    `json:"pm10"`
	NO2    []int    `json:"no2"`
}

// Pollution holds current component concentrations in µg/m³.
type Pollution struct {
	PM25    int              `json:"pm25"`
	PM10    int              `json:"pm10"`
	NO2     int              `json:"no2"`
	O3      int              `json:"o3"`
	History PollutionHistory `json:"history"`
	Source  Source           `json:"source"`
}

// AQIHistory holds one sample per day, labeled by short date.
type AQIHistory struct {
	Labels []string `json:"labels"`
	AQI    []int    `json:"aqi"`
}

// AQI holds the US-scale air quality index (0-500) and its breakdown.
type AQI struct {
	AQI     int        `json:"aqi"`
	Status  string     `json:"status"`
	PM25    int        `json:"pm25"`
	PM10    int        `json:"pm10"`
	NO2     int        `json:"no2"`
	O3      int        `json:"o3"`
	History AQIHistory `json:"history"`
	Source  Source     `json:"source"`
}

// Snapshot is the full bundle of city data for one selection. A nil
// section means it has not been fetched yet; a non-nil section is
// always fully populated.
type Snapshot struct {
	Traffic   *Traffic   `json:"traffic,omitempty"`
	Weather   *Weather   `json:"weather,omitempty"`
	Pollution *Pollution `json:"pollution,omitempty"`
	AQI       *AQI       `json:"aqi,omitempty"`
}

// Complete reports whether every section is present.
func (s Snapshot) Complete() bool {
	return s.Traffic != nil && s.Weather != nil && s.Pollution != nil && s.AQI != nil
}

// AQIStatus maps a US-scale AQI value onto its severity label.
func AQIStatus(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy"
	default:
		return "Very Unhealthy"
	}
}

type pollutantThreshold struct {
	good      int
	moderate  int
	unhealthy int
}

var pollutantThresholds = map[string]pollutantThreshold{
	"pm25": {good: 12, moderate: 35, unhealthy: 55},
	"pm10": {good: 54, moderate: 154, unhealthy: 254},
	"no2":  {good: 53, moderate: 100, unhealthy: 360},
	"o3":   {good: 54, moderate: 70, unhealthy: 125},
}

// PollutantStatus classifies a concentration for one of the pollutant
// kinds pm25, pm10, no2 or o3. Unknown kinds classify as "Good".
func PollutantStatus(kind string, value int) string {
	t, ok := pollutantThresholds[kind]
	if !ok {
		return "Good"
	}
	switch {
	case value <= t.good:
		return "Good"
	case value <= t.moderate:
		return "Moderate"
	case value <= t.unhealthy:
		return "Unhealthy"
	default:
		return "Very Unhealthy"
	}
}
