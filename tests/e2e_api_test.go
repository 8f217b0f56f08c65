package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/rfvision/core"
	"github.com/signalsfoundry/rfvision/internal/animation"
	"github.com/signalsfoundry/rfvision/internal/api"
	"github.com/signalsfoundry/rfvision/internal/demo"
	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/modulation"
	"github.com/signalsfoundry/rfvision/internal/observability"
	"github.com/signalsfoundry/rfvision/internal/rpc"
	"github.com/signalsfoundry/rfvision/kb"
)

type apiTestEnv struct {
	ctx     context.Context
	http    *httptest.Server
	calc    *rpc.CalculatorClient
	catalog *kb.Catalog
	events  chan kb.Event
}

// newAPITestEnv runs the HTTP API and the gRPC calculator against one shared
// catalog, the way rfvision-server wires them.
func newAPITestEnv(t *testing.T) *apiTestEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	collector, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		cancel()
		t.Fatalf("NewCollector: %v", err)
	}
	catalog := kb.NewCatalog()
	events := make(chan kb.Event, 16)
	unsubscribe := catalog.Subscribe(func(ev kb.Event) { events <- ev })

	proc, err := modulation.NewProcessor(
		modulation.WithChannel(dsp.NewChannel(11)),
		modulation.WithRecorder(collector),
	)
	if err != nil {
		cancel()
		t.Fatalf("NewProcessor: %v", err)
	}
	driver := animation.NewDriver(0, animation.Accelerated, len(demo.Stages))
	ctrl := demo.NewController(driver, demo.WithRecorder(collector))

	handler, err := api.NewServer(api.Deps{
		Processor:    proc,
		Catalog:      catalog,
		Demo:         ctrl,
		Metrics:      collector,
		Logger:       logging.Noop(),
		ServeMetrics: true,
	})
	if err != nil {
		cancel()
		t.Fatalf("api.NewServer: %v", err)
	}
	httpSrv := httptest.NewServer(handler)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cancel()
		t.Fatalf("net.Listen: %v", err)
	}
	grpcSrv := rpc.NewServer(rpc.NewCalculator(catalog, logging.Noop()), logging.Noop(), collector)
	go func() { _ = grpcSrv.Serve(lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		cancel()
		t.Fatalf("grpc.NewClient: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		grpcSrv.GracefulStop()
		httpSrv.Close()
		ctrl.Close()
		unsubscribe()
		cancel()
	})

	return &apiTestEnv{
		ctx:     ctx,
		http:    httpSrv,
		calc:    rpc.NewCalculatorClient(conn),
		catalog: catalog,
		events:  events,
	}
}

func (e *apiTestEnv) call(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequestWithContext(e.ctx, method, e.http.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.http.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestEndToEndCatalogAcrossTransports(t *testing.T) {
	env := newAPITestEnv(t)

	nf := 4.0
	for _, tm := range []core.TransceiverModel{
		{ID: "vhf-a", Band: core.FrequencyBand{MinMHz: 144, MaxMHz: 148}, TxPowerDBm: 37, GainTxDBi: 3, GainRxDBi: 3, NoiseFigureDB: &nf},
		{ID: "vhf-b", Band: core.FrequencyBand{MinMHz: 144, MaxMHz: 146}, TxPowerDBm: 30, GainTxDBi: 6, GainRxDBi: 6},
	} {
		if code := env.call(t, http.MethodPost, "/api/transceivers", tm, nil); code != http.StatusCreated {
			t.Fatalf("POST transceiver %s: status %d", tm.ID, code)
		}
	}
	for range 2 {
		select {
		case ev := <-env.events:
			if ev.Type != kb.EventTransceiverAdded {
				t.Fatalf("event = %v, want added", ev.Type)
			}
		case <-env.ctx.Done():
			t.Fatal("timed out waiting for catalog events")
		}
	}

	var viaHTTP core.LinkBudget
	if code := env.call(t, http.MethodGet, "/api/rf/link-budget?tx=vhf-a&rx=vhf-b&distance_km=20", nil, &viaHTTP); code != http.StatusOK {
		t.Fatalf("link budget over HTTP: status %d", code)
	}

	req, err := structpb.NewStruct(map[string]any{"tx": "vhf-a", "rx": "vhf-b", "distance_km": 20})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	viaRPC, err := env.calc.LinkBudget(env.ctx, req)
	if err != nil {
		t.Fatalf("LinkBudget over gRPC: %v", err)
	}
	if got := viaRPC.GetFields()["snr_db"].GetNumberValue(); got != viaHTTP.SNRdB {
		t.Fatalf("gRPC snr_db = %v, HTTP snr_db = %v", got, viaHTTP.SNRdB)
	}

	if code := env.call(t, http.MethodDelete, "/api/transceivers/vhf-b", nil, nil); code != http.StatusNoContent {
		t.Fatalf("DELETE: status %d", code)
	}
	if _, err := env.calc.LinkBudget(env.ctx, req); status.Code(err) != codes.NotFound {
		t.Fatalf("LinkBudget after delete = %v, want NotFound", err)
	}
}

func TestEndToEndTransmissionRecoversText(t *testing.T) {
	env := newAPITestEnv(t)

	for _, m := range []string{"ASK", "FSK", "PSK"} {
		var res modulation.Transmission
		code := env.call(t, http.MethodPost, "/api/complete-transmission", map[string]any{
			"text": "RF", "modulation_type": m, "snr_db": 30,
		}, &res)
		if code != http.StatusOK {
			t.Fatalf("%s: status %d", m, code)
		}
		if res.RecoveredText != "RF" || res.BER != 0 {
			t.Fatalf("%s: recovered %q with BER %v", m, res.RecoveredText, res.BER)
		}
	}
}

func TestEndToEndDemoAnimation(t *testing.T) {
	env := newAPITestEnv(t)

	if code := env.call(t, http.MethodPost, "/api/demo/params", map[string]any{"bit": "1", "modulation_type": "PSK"}, nil); code != http.StatusOK {
		t.Fatalf("update params: status %d", code)
	}
	var f animation.Frame
	env.call(t, http.MethodPost, "/api/demo/step", nil, &f)
	env.call(t, http.MethodPost, "/api/demo/step", nil, &f)
	if f.Step != 2 {
		t.Fatalf("step after two steps = %d", f.Step)
	}

	resp, err := env.http.Client().Get(env.http.URL + "/api/demo/canvas/" + demo.StageCanvas(f.Step) + ".png")
	if err != nil {
		t.Fatalf("GET canvas: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("content type = %q", resp.Header.Get("Content-Type"))
	}
	if _, err := png.Decode(resp.Body); err != nil {
		t.Fatalf("decode canvas: %v", err)
	}
}
