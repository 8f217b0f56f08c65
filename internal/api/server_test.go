package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/modulation"
	"github.com/signalsfoundry/rfvision/internal/observability"
)

func newTestServer(t *testing.T) (*Server, *observability.Collector) {
	t.Helper()
	proc, err := modulation.NewProcessor(modulation.WithChannel(dsp.NewChannel(7)))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	s, err := NewServer(Deps{Processor: proc, Metrics: metrics, Logger: logging.Noop(), ServeMetrics: true})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, metrics
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func TestNewServerRequiresProcessor(t *testing.T) {
	if _, err := NewServer(Deps{}); err == nil {
		t.Fatalf("NewServer without processor should fail")
	}
}

func TestHealthzAndRequestID(t *testing.T) {
	s, metrics := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(logging.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get(logging.RequestIDHeader); got != "req-42" {
		t.Fatalf("request id header = %q, want req-42", got)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Fatalf("status field = %v", body["status"])
	}
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/healthz", "GET", "200")); got != 1 {
		t.Fatalf("healthz request counter = %v, want 1", got)
	}

	rec = do(t, s, http.MethodGet, "/healthz", nil)
	if rec.Header().Get(logging.RequestIDHeader) == "" {
		t.Fatalf("a request id should be generated when none is sent")
	}
}

func TestUnmatchedRoutesAreCounted(t *testing.T) {
	s, metrics := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/nope", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("unmatched", "GET", "404")); got != 1 {
		t.Fatalf("unmatched counter = %v, want 1", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodGet, "/healthz", nil)
	rec := do(t, s, http.MethodGet, "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "rfvision_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}

func TestGenerateCarrier(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/generate_carrier?frequency=25&amplitude=2", nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[struct {
		Carrier struct {
			Time      []float64 `json:"time"`
			Amplitude []float64 `json:"amplitude"`
			Frequency float64   `json:"frequency"`
		} `json:"carrier"`
		Spectrum struct {
			Frequencies []float64 `json:"frequencies"`
			Magnitude   []float64 `json:"magnitude"`
		} `json:"spectrum"`
	}](t, rec)
	if got.Carrier.Frequency != 25 {
		t.Fatalf("frequency = %v, want 25", got.Carrier.Frequency)
	}
	if len(got.Carrier.Time) != 2000 || len(got.Carrier.Amplitude) != 2000 {
		t.Fatalf("carrier has %d/%d samples, want 2000", len(got.Carrier.Time), len(got.Carrier.Amplitude))
	}
	if got.Carrier.Amplitude[0] != 2 {
		t.Fatalf("first sample = %v, want 2 (cosine at t=0)", got.Carrier.Amplitude[0])
	}
	if len(got.Spectrum.Frequencies) == 0 || len(got.Spectrum.Frequencies) != len(got.Spectrum.Magnitude) {
		t.Fatalf("spectrum malformed: %d freqs, %d mags", len(got.Spectrum.Frequencies), len(got.Spectrum.Magnitude))
	}
}

func TestAnalogEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		path, key, signal string
	}{
		{"/api/generate_am", "am", "am_signal"},
		{"/api/generate_fm?freq_dev=20", "fm", "fm_signal"},
		{"/api/generate_pm?phase_dev=1", "pm", "pm_signal"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tc.path, nil)
			expectStatus(t, rec, http.StatusOK)
			body := decode[map[string]map[string]any](t, rec)
			sig, ok := body[tc.key][tc.signal].([]any)
			if !ok || len(sig) == 0 {
				t.Fatalf("%s.%s missing from response", tc.key, tc.signal)
			}
			if _, ok := body["spectrum"]["magnitude"]; !ok {
				t.Fatalf("spectrum missing")
			}
		})
	}
}

func TestBadQueryParameters(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{
		"/api/generate_carrier?frequency=abc",
		"/api/generate_carrier?frequency=-5",
		"/api/generate_am?mod_depth=NaN",
		"/api/rf/path-loss?distance_km=10",
		"/api/rf/path-loss?distance_km=0&frequency_mhz=100",
	} {
		rec := do(t, s, http.MethodGet, path, nil)
		expectStatus(t, rec, http.StatusBadRequest)
		if body := decode[errorBody](t, rec); body.Error == "" {
			t.Fatalf("%s: empty error message", path)
		}
	}
}

func TestCompleteTransmission(t *testing.T) {
	s, _ := newTestServer(t)
	for _, m := range []string{"ASK", "FSK", "PSK"} {
		t.Run(m, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/complete-transmission", map[string]any{
				"text": "Hi", "carrier_freq": 100, "bit_rate": "10", "snr_db": 30, "modulation_type": m,
			})
			expectStatus(t, rec, http.StatusOK)
			got := decode[modulation.Transmission](t, rec)
			if got.BinaryData != "0100100001101001" {
				t.Fatalf("binary_data = %q", got.BinaryData)
			}
			if got.RecoveredText != "Hi" || got.BER != 0 {
				t.Fatalf("recovered %q with BER %v", got.RecoveredText, got.BER)
			}
			if string(got.Parameters.ModulationType) != m {
				t.Fatalf("parameters.modulation_type = %q", got.Parameters.ModulationType)
			}
		})
	}
}

func TestSimulateTransmissionValidation(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name string
		body any
	}{
		{"empty message", map[string]any{}},
		{"unknown modulation", map[string]any{"message": "a", "modulation_type": "QAM"}},
		{"non numeric carrier", map[string]any{"message": "a", "carrier_freq": "fast"}},
		{"malformed json", "{"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/simulate_transmission", tc.body)
			expectStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestTextToBinary(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/text-to-binary", nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[textToBinaryResponse](t, rec)
	if got.OriginalText != "Hello" || got.TotalBits != 40 || len(got.CharMappings) != 5 {
		t.Fatalf("unexpected default response: %+v", got)
	}
	if got.CharMappings[0].Binary != "01001000" || got.CharMappings[0].ASCII != 72 {
		t.Fatalf("H mapping = %+v", got.CharMappings[0])
	}

	rec = do(t, s, http.MethodPost, "/api/text-to-binary", map[string]string{"text": "日本"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestDigitalModulation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/digital-modulation", map[string]any{"modulation_type": "FSK"})
	expectStatus(t, rec, http.StatusOK)
	fsk := decode[map[string]any](t, rec)
	if fsk["freq_0"] != 80.0 || fsk["freq_1"] != 120.0 {
		t.Fatalf("FSK tones = %v/%v, want 80/120", fsk["freq_0"], fsk["freq_1"])
	}
	if bb, ok := fsk["baseband"].(map[string]any); !ok || bb["binary_data"] != "10101010" {
		t.Fatalf("baseband not attached: %v", fsk["baseband"])
	}

	rec = do(t, s, http.MethodPost, "/api/digital-modulation", map[string]any{"modulation_type": "psk", "binary_data": "1100"})
	expectStatus(t, rec, http.StatusOK)
	psk := decode[map[string]any](t, rec)
	if psk["type"] != "PSK" {
		t.Fatalf("type = %v, want PSK", psk["type"])
	}
	if _, ok := psk["baseband"].(map[string]any); !ok {
		t.Fatalf("baseband should be the full baseband object, got %T", psk["baseband"])
	}

	rec = do(t, s, http.MethodPost, "/api/digital-modulation", map[string]any{"modulation_type": "QAM"})
	expectStatus(t, rec, http.StatusBadRequest)
	rec = do(t, s, http.MethodPost, "/api/digital-modulation", map[string]any{"binary_data": "10x1"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestBasebandEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/digital-baseband", map[string]any{"text": "A", "encoding": "manchester"})
	expectStatus(t, rec, http.StatusOK)
	got := decode[map[string]any](t, rec)
	if got["original_text"] != "A" || got["binary_data"] != "01000001" || got["encoding"] != "Manchester" {
		t.Fatalf("unexpected digital-baseband response: %v %v %v", got["original_text"], got["binary_data"], got["encoding"])
	}

	rec = do(t, s, http.MethodPost, "/api/generate-baseband", map[string]any{"binary_data": "11", "encoding": "bogus"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestModulationDemo(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/modulation-demo", map[string]any{"bit_value": "0", "modulation_type": "ASK"})
	expectStatus(t, rec, http.StatusOK)
	got := decode[modulation.BitDemoResult](t, rec)
	if len(got.Time) != 100 {
		t.Fatalf("samples = %d, want 100 (0.1 s at 1 kHz)", len(got.Time))
	}
	if got.Modulated[0] < 0.29 || got.Modulated[0] > 0.31 {
		t.Fatalf("ASK '0' should start at 0.3, got %v", got.Modulated[0])
	}

	rec = do(t, s, http.MethodPost, "/api/modulation-demo", map[string]any{"bit_value": "2"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestSpectrumAnalysis(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/spectrum-analysis", map[string]any{})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[errorBody](t, rec).Error; got != "No signal data provided" {
		t.Fatalf("error = %q", got)
	}

	rec = do(t, s, http.MethodPost, "/api/spectrum-analysis", map[string]any{
		"signal": []float64{1, 0, -1, 0, 1, 0, -1, 0}, "sampling_rate": 8,
	})
	expectStatus(t, rec, http.StatusOK)
	sp := decode[map[string][]float64](t, rec)
	if len(sp["frequencies"]) != 4 {
		t.Fatalf("bins = %d, want 4", len(sp["frequencies"]))
	}
	if sp["magnitude"][2] < 3.9 {
		t.Fatalf("2 Hz bin magnitude = %v, want 4", sp["magnitude"][2])
	}

	rec = do(t, s, http.MethodPost, "/api/spectrum-analysis", map[string]any{"signal": []float64{1}, "sampling_rate": 0})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestChannelSimulation(t *testing.T) {
	s, _ := newTestServer(t)
	signal := []float64{1, -1, 1, -1, 1, -1}
	for _, fading := range []string{"none", "rayleigh"} {
		rec := do(t, s, http.MethodPost, "/api/channel-simulation", map[string]any{"signal": signal, "fading_type": fading})
		expectStatus(t, rec, http.StatusOK)
		got := decode[channelResponse](t, rec)
		if len(got.NoisySignal) != len(signal) || got.Fading != fading || got.SNR != 20 {
			t.Fatalf("%s: unexpected response %+v", fading, got)
		}
	}
	rec := do(t, s, http.MethodPost, "/api/channel-simulation", map[string]any{"signal": signal, "fading_type": "rician"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestDemodulation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/demodulation", map[string]any{"signal": []float64{1}})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[errorBody](t, rec).Error; got != "Signal or time data missing" {
		t.Fatalf("error = %q", got)
	}

	mod := do(t, s, http.MethodPost, "/api/digital-modulation", map[string]any{"binary_data": "1011", "modulation_type": "PSK"})
	expectStatus(t, mod, http.StatusOK)
	keyed := decode[struct {
		Time   []float64 `json:"time"`
		Signal []float64 `json:"signal"`
	}](t, mod)

	rec = do(t, s, http.MethodPost, "/api/demodulation", map[string]any{
		"signal": keyed.Signal, "time": keyed.Time, "modulation_type": "PSK",
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[modulation.Demodulated](t, rec).RecoveredBinary; got != "1011" {
		t.Fatalf("recovered = %q, want 1011", got)
	}
}

func TestBitSequence(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/bit-sequence", map[string]any{"text": "abc", "modulation_type": "FSK"})
	expectStatus(t, rec, http.StatusOK)
	got := decode[map[string]any](t, rec)
	if steps := got["steps"].([]any); len(steps) != 16 {
		t.Fatalf("steps = %d, want 16", len(steps))
	}
	if got["remaining"] != 8.0 {
		t.Fatalf("remaining = %v, want 8", got["remaining"])
	}

	rec = do(t, s, http.MethodPost, "/api/bit-sequence", map[string]any{})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRender(t *testing.T) {
	s, metrics := newTestServer(t)
	tests := []struct {
		path          string
		width, height int
	}{
		{"/render/digital.png?bit=1", 600, 300},
		{"/render/output?modulation=fsk&bit=1&width=320&height=160", 320, 160},
		{"/render/text.png?text=Hi&baud_rate=2", 800, 300},
		{"/render/fraction.png?numerator=3&denominator=4&highlight=true", 200, 200},
		{"/render/performance.png", 600, 400},
	}
	for _, tc := range tests {
		rec := do(t, s, http.MethodGet, tc.path, nil)
		expectStatus(t, rec, http.StatusOK)
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("%s: content type %q", tc.path, ct)
		}
		img, err := png.Decode(rec.Body)
		if err != nil {
			t.Fatalf("%s: decode png: %v", tc.path, err)
		}
		if b := img.Bounds(); b.Dx() != tc.width || b.Dy() != tc.height {
			t.Fatalf("%s: size %dx%d, want %dx%d", tc.path, b.Dx(), b.Dy(), tc.width, tc.height)
		}
	}
	if got := testutil.ToFloat64(metrics.Renders.WithLabelValues("digital")); got != 1 {
		t.Fatalf("digital render counter = %v, want 1", got)
	}

	for path, want := range map[string]int{
		"/render/nosuch.png":                      http.StatusNotFound,
		"/render/digital.png?bit=7":               http.StatusBadRequest,
		"/render/digital.png?modulation=QAM":      http.StatusBadRequest,
		"/render/fraction.png?numerator=5":        http.StatusBadRequest,
		"/render/fraction.png?denominator=100000": http.StatusBadRequest,
		"/render/text.png?bits=10x":               http.StatusBadRequest,
		"/render/digital.png?width=99999":         http.StatusBadRequest,
		"/render/carrier.png?carrier_freq=hello":  http.StatusBadRequest,
	} {
		rec := do(t, s, http.MethodGet, path, nil)
		expectStatus(t, rec, want)
	}
}

func TestCanvasesAndFractions(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/canvases", nil)
	expectStatus(t, rec, http.StatusOK)
	names := decode[map[string][]string](t, rec)
	if len(names["render"]) != 10 || len(names["demo"]) != 9 {
		t.Fatalf("canvas names = %v", names)
	}

	rec = do(t, s, http.MethodGet, "/api/fractions", nil)
	expectStatus(t, rec, http.StatusOK)
	fr := decode[map[string][]map[string]any](t, rec)
	if len(fr["fractions"]) != 15 {
		t.Fatalf("fractions = %d, want 15", len(fr["fractions"]))
	}
}
