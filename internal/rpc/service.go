package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/rfvision/core"
	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/observability"
	"github.com/signalsfoundry/rfvision/kb"
	"github.com/signalsfoundry/rfvision/model"
)

// Calculator implements CalculatorServer over the core RF formulas and a
// transceiver catalog.
type Calculator struct {
	catalog *kb.Catalog
	log     logging.Logger
}

var _ CalculatorServer = (*Calculator)(nil)

// NewCalculator binds a calculator to catalog. A nil catalog behaves as an
// empty one.
func NewCalculator(catalog *kb.Catalog, log logging.Logger) *Calculator {
	if catalog == nil {
		catalog = kb.NewCatalog()
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Calculator{catalog: catalog, log: log}
}

// args reads typed fields from a request Struct and keeps the first error.
// Numbers may be sent as numbers or numeric strings.
type args struct {
	fields map[string]*structpb.Value
	err    error
}

func newArgs(in *structpb.Struct) *args {
	return &args{fields: in.GetFields()}
}

func (a *args) number(key string, fallback float64) float64 {
	v, ok := a.fields[key]
	if !ok || a.err != nil {
		return fallback
	}
	var f float64
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f = kind.NumberValue
	case *structpb.Value_StringValue:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(kind.StringValue), 64)
		if err != nil {
			a.err = fmt.Errorf("%w: %s is not a number: %q", model.ErrInvalidParameter, key, kind.StringValue)
			return fallback
		}
		f = parsed
	case *structpb.Value_NullValue:
		return fallback
	default:
		a.err = fmt.Errorf("%w: %s must be a number", model.ErrInvalidParameter, key)
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		a.err = fmt.Errorf("%w: %s must be finite", model.ErrInvalidParameter, key)
		return fallback
	}
	return f
}

func (a *args) positive(key string) float64 {
	if _, ok := a.fields[key]; !ok && a.err == nil {
		a.err = fmt.Errorf("%w: %s is required", model.ErrInvalidParameter, key)
		return 0
	}
	f := a.number(key, 0)
	if a.err == nil && !(f > 0) {
		a.err = fmt.Errorf("%w: %s must be positive, got %v", model.ErrInvalidParameter, key, f)
	}
	return f
}

func (a *args) text(key string) string {
	v, ok := a.fields[key]
	if !ok || a.err != nil {
		return ""
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		a.err = fmt.Errorf("%w: %s must be a string", model.ErrInvalidParameter, key)
		return ""
	}
	return s.StringValue
}

func (c *Calculator) logger(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, c.log)
}

func reply(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// PathLoss returns the free-space path loss for distance_km and
// frequency_mhz.
func (c *Calculator) PathLoss(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := newArgs(in)
	d := a.positive("distance_km")
	f := a.positive("frequency_mhz")
	if a.err != nil {
		return nil, ToStatusError(a.err)
	}
	return reply(map[string]any{
		"distance_km":   d,
		"frequency_mhz": f,
		"path_loss_db":  core.FreeSpacePathLoss(d, f),
		"wavelength_m":  core.Wavelength(f * 1e6),
	})
}

// Friis returns the received power of a free-space link. tx_power_dbm
// defaults to 30 and both antenna gains to 0 dBi.
func (c *Calculator) Friis(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := newArgs(in)
	pt := a.number("tx_power_dbm", 30)
	gt := a.number("tx_gain_dbi", 0)
	gr := a.number("rx_gain_dbi", 0)
	d := a.positive("distance_km")
	f := a.positive("frequency_mhz")
	if a.err != nil {
		return nil, ToStatusError(a.err)
	}
	pr := core.FriisReceivedPower(pt, gt, gr, d, f)
	return reply(map[string]any{
		"path_loss_db":          core.FreeSpacePathLoss(d, f),
		"received_power_dbm":    pr,
		"received_power_w":      core.DBmToWatts(pr),
		"effective_aperture_m2": core.EffectiveAperture(core.DBToLinear(gr), f*1e6),
	})
}

// NoisePower returns kTB for bandwidth_hz at temperature_k (default 290 K),
// plus snr_db when signal_power_dbm is given.
func (c *Calculator) NoisePower(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := newArgs(in)
	bw := a.positive("bandwidth_hz")
	temp := core.ReferenceNoiseTempK
	if _, ok := a.fields["temperature_k"]; ok {
		temp = a.positive("temperature_k")
	}
	_, hasSignal := a.fields["signal_power_dbm"]
	sig := a.number("signal_power_dbm", 0)
	if a.err != nil {
		return nil, ToStatusError(a.err)
	}
	n := core.NoisePower(temp, bw)
	out := map[string]any{
		"temperature_k":   temp,
		"bandwidth_hz":    bw,
		"noise_power_w":   n,
		"noise_power_dbm": core.WattsToDBm(n),
	}
	if hasSignal {
		out["snr_db"] = core.SNR(core.DBmToWatts(sig), n)
	}
	return reply(out)
}

// LinkBudget evaluates the link between two catalog transceivers.
func (c *Calculator) LinkBudget(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := newArgs(in)
	tx := a.text("tx")
	rx := a.text("rx")
	d := a.positive("distance_km")
	if a.err == nil && (tx == "" || rx == "") {
		a.err = fmt.Errorf("%w: tx and rx are required", model.ErrInvalidParameter)
	}
	if a.err != nil {
		return nil, ToStatusError(a.err)
	}

	ctx, span := observability.StartSpan(ctx, "catalog.LinkBudget",
		attribute.String("tx", tx), attribute.String("rx", rx))
	defer span.End()

	lb, err := c.catalog.LinkBudget(tx, rx, d)
	if err != nil {
		span.RecordError(err)
		c.logger(ctx).Debug(ctx, "link budget rejected", logging.Err(err))
		return nil, ToStatusError(err)
	}
	c.logger(ctx).Debug(ctx, "link budget evaluated",
		logging.String("tx", tx),
		logging.String("rx", rx),
		logging.Float("snr_db", lb.SNRdB),
	)

	raw, err := json.Marshal(lb)
	if err != nil {
		return nil, ToStatusError(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ToStatusError(err)
	}
	return reply(m)
}

// TextToBinary encodes text as 8-bit character codes.
func (c *Calculator) TextToBinary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := newArgs(in)
	text := a.text("text")
	if a.err != nil {
		return nil, ToStatusError(a.err)
	}
	bits, err := codec.TextToBinary(text)
	if err != nil {
		return nil, ToStatusError(err)
	}
	mappings, err := codec.CharMappings(text)
	if err != nil {
		return nil, ToStatusError(err)
	}
	list := make([]any, 0, len(mappings))
	for _, m := range mappings {
		list = append(list, map[string]any{
			"character": m.Character,
			"ascii":     m.ASCII,
			"binary":    m.Binary,
		})
	}
	return reply(map[string]any{
		"original_text": text,
		"binary_data":   bits,
		"char_mappings": list,
		"total_bits":    len(bits),
	})
}
