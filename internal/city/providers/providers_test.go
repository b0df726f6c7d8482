package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/city"
	"github.com/citypulse/citypulse/internal/geo"
)

type staticResolver struct {
	pt  geo.Point
	err error
}

func (s staticResolver) Resolve(ctx context.Context, name string) (geo.Point, error) {
	return s.pt, s.err
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.Client(), "test-key")
	c.baseURL = srv.URL
	c.backoff.MaxRetries = 0
	c.backoff.InitialInterval = time.Millisecond
	return c
}

func TestWeatherAdapterNormalizes(t *testing.T) {
	// dt values constructed in local time so the noon preference is
	// exercised regardless of the test host's zone.
	day1 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local)
	day1Noon := time.Date(2026, 8, 31, 12, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 9, 1, 3, 0, 0, 0, time.Local)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/weather":
			w.Write([]byte(`{
				"weather":[{"main":"Clouds","description":"scattered clouds"}],
				"main":{"temp":21.6,"humidity":64,"pressure":1012.4},
				"wind":{"speed":5.0},
				"visibility":8210
			}`))
		case "/forecast":
			body := `{"list":[` +
				`{"dt":` + itoa(day1.Unix()) + `,"main":{"temp":10.2},"weather":[{"main":"Rain"}]},` +
				`{"dt":` + itoa(day1Noon.Unix()) + `,"main":{"temp":15.4},"weather":[{"main":"Clear"}]},` +
				`{"dt":` + itoa(day2.Unix()) + `,"main":{"temp":7.1},"weather":[{"main":"Snow"}]}` +
				`]}`
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	})

	a := NewWeatherAdapter(client, city.NewGenerator(1), zerolog.Nop())
	got, err := a.FetchWeather(context.Background(), "London")
	if err != nil {
		t.Fatalf("FetchWeather failed: %v", err)
	}

	if got.Temperature != 22 {
		t.Errorf("temperature = %d, want 22", got.Temperature)
	}
	if got.WindSpeed != 18 {
		t.Errorf("wind speed = %d km/h, want 18", got.WindSpeed)
	}
	if got.Visibility != 8.2 {
		t.Errorf("visibility = %.1f km, want 8.2", got.Visibility)
	}
	if got.Pressure != 1012 {
		t.Errorf("pressure = %d, want 1012", got.Pressure)
	}
	if got.Condition != city.ConditionCloudy {
		t.Errorf("condition = %q, want cloudy", got.Condition)
	}
	if got.Source != city.SourceLive {
		t.Errorf("source = %q, want live", got.Source)
	}

	if len(got.Forecast) != 2 {
		t.Fatalf("forecast length = %d, want 2", len(got.Forecast))
	}
	// Day one prefers the noon point over the earlier one.
	if got.Forecast[0].Temp != 15 || got.Forecast[0].Condition != city.ConditionClear {
		t.Errorf("day 1 = %+v, want noon entry (temp 15, clear)", got.Forecast[0])
	}
	if got.Forecast[0].Date != day1Noon.Format("Mon") {
		t.Errorf("day 1 label = %q, want %q", got.Forecast[0].Date, day1Noon.Format("Mon"))
	}
	if got.Forecast[1].Temp != 7 || got.Forecast[1].Condition != city.ConditionSnowy {
		t.Errorf("day 2 = %+v, want first entry (temp 7, snowy)", got.Forecast[1])
	}
}

func TestWeatherAdapterForecastCappedAtFiveDays(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.Local)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/weather":
			w.Write([]byte(`{"weather":[{"main":"Clear","description":"clear sky"}],"main":{"temp":20,"humidity":50,"pressure":1010},"wind":{"speed":2},"visibility":10000}`))
		case "/forecast":
			body := `{"list":[`
			for i := 0; i < 7; i++ {
				if i > 0 {
					body += ","
				}
				body += `{"dt":` + itoa(base.AddDate(0, 0, i).Unix()) + `,"main":{"temp":20},"weather":[{"main":"Clear"}]}`
			}
			body += `]}`
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	})

	a := NewWeatherAdapter(client, city.NewGenerator(1), zerolog.Nop())
	got, err := a.FetchWeather(context.Background(), "London")
	if err != nil {
		t.Fatalf("FetchWeather failed: %v", err)
	}
	if len(got.Forecast) != 5 {
		t.Fatalf("forecast length = %d, want cap of 5", len(got.Forecast))
	}
}

func TestWeatherAdapterEmptyForecastSubstitutesSynthetic(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/weather":
			w.Write([]byte(`{"weather":[{"main":"Clear","description":"clear sky"}],"main":{"temp":18,"humidity":40,"pressure":1000},"wind":{"speed":1},"visibility":9000}`))
		case "/forecast":
			w.Write([]byte(`{"list":[]}`))
		default:
			http.NotFound(w, r)
		}
	})

	a := NewWeatherAdapter(client, city.NewGenerator(1), zerolog.Nop())
	got, err := a.FetchWeather(context.Background(), "London")
	if err != nil {
		t.Fatalf("FetchWeather failed: %v", err)
	}

	// Current conditions stay real; the forecast is a synthetic stand-in.
	if got.Source != city.SourceLive {
		t.Errorf("source = %q, want live", got.Source)
	}
	if got.Temperature != 18 {
		t.Errorf("temperature = %d, want 18", got.Temperature)
	}
	if len(got.Forecast) != 5 {
		t.Fatalf("synthetic forecast length = %d, want 5", len(got.Forecast))
	}
}

func TestWeatherAdapterFailsOnMissingFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"wind":{"speed":3}}`))
	})

	a := NewWeatherAdapter(client, city.NewGenerator(1), zerolog.Nop())
	if _, err := a.FetchWeather(context.Background(), "London"); err == nil {
		t.Fatal("expected error for response missing weather and main")
	}
}

func TestWeatherAdapterFailsOnMissingWind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"weather":[{"main":"Clear","description":"clear sky"}],
			"main":{"temp":20,"humidity":50,"pressure":1010},
			"visibility":10000
		}`))
	})

	a := NewWeatherAdapter(client, city.NewGenerator(1), zerolog.Nop())
	if _, err := a.FetchWeather(context.Background(), "London"); err == nil {
		t.Fatal("expected error for response missing wind")
	}
}

func TestAQILevelRemap(t *testing.T) {
	cases := []struct {
		level      int
		wantValue  int
		wantStatus string
	}{
		{1, 0, "Good"},
		{2, 50, "Fair"},
		{3, 100, "Moderate"},
		{4, 150, "Poor"},
		{5, 200, "Very Poor"},
		{0, 0, "Good"},
		{-1, 0, "Good"},
		{9, 0, "Good"},
	}
	for _, tc := range cases {
		value, status := remapLevel(tc.level)
		if value != tc.wantValue || status != tc.wantStatus {
			t.Errorf("remapLevel(%d) = (%d, %q), want (%d, %q)",
				tc.level, value, status, tc.wantValue, tc.wantStatus)
		}
	}
}

func TestAQIAdapterHistoryFailureFallsBack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/air_pollution":
			w.Write([]byte(`{"list":[{"main":{"aqi":3},"components":{"pm2_5":12.4,"pm10":25.6,"no2":18.1,"o3":30.9}}]}`))
		case "/air_pollution/history":
			http.Error(w, "boom", http.StatusBadRequest)
		default:
			http.NotFound(w, r)
		}
	})

	a := NewAQIAdapter(client, staticResolver{pt: geo.Point{Lat: 48.8566, Lng: 2.3522}}, city.NewGenerator(1), zerolog.Nop())
	got, err := a.FetchAQI(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("FetchAQI failed: %v", err)
	}

	if got.AQI != 100 || got.Status != "Moderate" {
		t.Errorf("got aqi=%d status=%q, want 100/Moderate", got.AQI, got.Status)
	}
	if got.PM25 != 12 || got.PM10 != 26 || got.NO2 != 18 || got.O3 != 31 {
		t.Errorf("unexpected rounded components: %+v", got)
	}
	if len(got.History.Labels) != 7 || len(got.History.AQI) != 7 {
		t.Fatalf("expected 7 synthetic history samples, got labels=%d aqi=%d",
			len(got.History.Labels), len(got.History.AQI))
	}
	if got.Source != city.SourceLive {
		t.Errorf("source = %q, want live (only history is synthetic)", got.Source)
	}
}

func TestAQIAdapterOnePerDayHistory(t *testing.T) {
	day := time.Date(2026, 8, 29, 6, 0, 0, 0, time.Local)
	sameDay := day.Add(5 * time.Hour)
	nextDay := day.AddDate(0, 0, 1)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/air_pollution":
			w.Write([]byte(`{"list":[{"main":{"aqi":2},"components":{"pm2_5":8,"pm10":15,"no2":9,"o3":22}}]}`))
		case "/air_pollution/history":
			body := `{"list":[` +
				`{"dt":` + itoa(day.Unix()) + `,"main":{"aqi":2},"components":{}},` +
				`{"dt":` + itoa(sameDay.Unix()) + `,"main":{"aqi":5},"components":{}},` +
				`{"dt":` + itoa(nextDay.Unix()) + `,"main":{"aqi":4},"components":{}}` +
				`]}`
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	})

	a := NewAQIAdapter(client, staticResolver{pt: geo.Point{Lat: 1.3521, Lng: 103.8198}}, city.NewGenerator(1), zerolog.Nop())
	got, err := a.FetchAQI(context.Background(), "Singapore")
	if err != nil {
		t.Fatalf("FetchAQI failed: %v", err)
	}

	if len(got.History.Labels) != 2 {
		t.Fatalf("history length = %d, want 2 (one per day)", len(got.History.Labels))
	}
	// The first sample of each day wins.
	if got.History.AQI[0] != 50 {
		t.Errorf("day 1 value = %d, want 50 (level 2)", got.History.AQI[0])
	}
	if got.History.AQI[1] != 150 {
		t.Errorf("day 2 value = %d, want 150 (level 4)", got.History.AQI[1])
	}
	if got.History.Labels[0] != day.Format("Jan 2") {
		t.Errorf("day 1 label = %q, want %q", got.History.Labels[0], day.Format("Jan 2"))
	}
}

func TestPollutionAdapterHistoryAlignment(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.Local)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/air_pollution":
			w.Write([]byte(`{"list":[{"main":{"aqi":2},"components":{"pm2_5":14.5,"pm10":30.2,"no2":21.7,"o3":40.1}}]}`))
		case "/air_pollution/history":
			body := `{"list":[`
			for i := 0; i < 3; i++ {
				if i > 0 {
					body += ","
				}
				body += `{"dt":` + itoa(base.Add(time.Duration(i)*time.Hour).Unix()) + `,"components":{"pm2_5":10,"pm10":20,"no2":15,"o3":25}}`
			}
			body += `]}`
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	})

	a := NewPollutionAdapter(client, staticResolver{pt: geo.Point{Lat: 19.0760, Lng: 72.8777}}, city.NewGenerator(1), zerolog.Nop())
	got, err := a.FetchPollution(context.Background(), "Mumbai")
	if err != nil {
		t.Fatalf("FetchPollution failed: %v", err)
	}

	if got.PM25 != 15 || got.PM10 != 30 || got.NO2 != 22 || got.O3 != 40 {
		t.Errorf("unexpected rounded concentrations: %+v", got)
	}

	h := got.History
	if len(h.Labels) != 3 {
		t.Fatalf("history length = %d, want 3", len(h.Labels))
	}
	if len(h.PM25) != len(h.Labels) || len(h.PM10) != len(h.Labels) || len(h.NO2) != len(h.Labels) {
		t.Fatalf("history series misaligned: labels=%d pm25=%d pm10=%d no2=%d",
			len(h.Labels), len(h.PM25), len(h.PM10), len(h.NO2))
	}
	if h.Labels[0] != "10:00" {
		t.Errorf("first label = %q, want 10:00", h.Labels[0])
	}
}

func TestPollutionAdapterFailsWithoutLocation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when location resolution fails")
	})

	a := NewPollutionAdapter(client, staticResolver{err: geo.ErrNotFound}, city.NewGenerator(1), zerolog.Nop())
	if _, err := a.FetchPollution(context.Background(), "Nowhere"); err == nil {
		t.Fatal("expected error when location cannot be resolved")
	}
}

func TestPollutionAdapterFailsOnEmptyList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list":[]}`))
	})

	a := NewPollutionAdapter(client, staticResolver{pt: geo.Point{Lat: 1, Lng: 2}}, city.NewGenerator(1), zerolog.Nop())
	if _, err := a.FetchPollution(context.Background(), "Mumbai"); err == nil {
		t.Fatal("expected error for empty pollution list")
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
