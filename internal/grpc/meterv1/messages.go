// Package meterv1 defines the meterwatch.v1.MeterService gRPC contract.
//
// The protobuf descriptor is assembled in Go (see File) and messages travel
// over the default proto codec as dynamic messages, so any protobuf client
// built from meter.proto can call the service. The Go structs below are the
// typed view servers and clients in this module work with.
package meterv1

import (
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Reading struct {
	MeterID   string     `json:"meterId"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	KWh       *float64   `json:"kWh,omitempty"`
}

type Anomaly struct {
	MeterID   string    `json:"meterId"`
	Timestamp time.Time `json:"timestamp"`
	KWh       *float64  `json:"kWh,omitempty"`
}

type SubmitReadingRequest struct {
	Reading Reading `json:"reading"`
}

type SubmitReadingResponse struct {
	Anomalies []Anomaly `json:"anomalies"`
}

// RangeRequest selects one meter's records with a timestamp in [Start, End].
// A zero Start or End is sent as an unset field.
type RangeRequest struct {
	MeterID string    `json:"meterId"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

type QueryReadingsResponse struct {
	Readings []Reading `json:"readings"`
}

type QueryAnomaliesResponse struct {
	Anomalies []Anomaly `json:"anomalies"`
}

type ListMetersResponse struct {
	MeterIDs []string `json:"meterIds"`
}

// wireMessage is implemented by every typed message that crosses the wire.
type wireMessage interface {
	toProto() *dynamicpb.Message
}

func (r *Reading) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(readingDesc)
	setString(m, "meter_id", r.MeterID)
	setTime(m, "timestamp", r.Timestamp)
	setDouble(m, "kwh", r.KWh)
	return m
}

func (r *Reading) fromProto(m protoreflect.Message) {
	r.MeterID = getString(m, "meter_id")
	r.Timestamp = getTime(m, "timestamp")
	r.KWh = getDouble(m, "kwh")
}

func (a *Anomaly) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(anomalyDesc)
	setString(m, "meter_id", a.MeterID)
	setTime(m, "timestamp", nonZero(a.Timestamp))
	setDouble(m, "kwh", a.KWh)
	return m
}

func (a *Anomaly) fromProto(m protoreflect.Message) {
	a.MeterID = getString(m, "meter_id")
	a.Timestamp = timeValue(getTime(m, "timestamp"))
	a.KWh = getDouble(m, "kwh")
}

func (r *SubmitReadingRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(submitReadingRequestDesc)
	if r != nil {
		m.Set(field(m, "reading"), protoreflect.ValueOfMessage(r.Reading.toProto()))
	}
	return m
}

func (r *SubmitReadingRequest) fromProto(m protoreflect.Message) {
	if fd := field(m, "reading"); m.Has(fd) {
		r.Reading.fromProto(m.Get(fd).Message())
	}
}

func (r *SubmitReadingResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(submitReadingResponseDesc)
	if r != nil {
		for i := range r.Anomalies {
			appendMessage(m, "anomalies", r.Anomalies[i].toProto())
		}
	}
	return m
}

func (r *SubmitReadingResponse) fromProto(m protoreflect.Message) {
	r.Anomalies = decodeAnomalies(m)
}

func (r *RangeRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(rangeRequestDesc)
	if r != nil {
		setString(m, "meter_id", r.MeterID)
		setTime(m, "start", nonZero(r.Start))
		setTime(m, "end", nonZero(r.End))
	}
	return m
}

func (r *RangeRequest) fromProto(m protoreflect.Message) {
	r.MeterID = getString(m, "meter_id")
	r.Start = timeValue(getTime(m, "start"))
	r.End = timeValue(getTime(m, "end"))
}

func (r *QueryReadingsResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(queryReadingsResponseDesc)
	if r != nil {
		for i := range r.Readings {
			appendMessage(m, "readings", r.Readings[i].toProto())
		}
	}
	return m
}

func (r *QueryReadingsResponse) fromProto(m protoreflect.Message) {
	list := m.Get(field(m, "readings")).List()
	r.Readings = make([]Reading, list.Len())
	for i := range r.Readings {
		r.Readings[i].fromProto(list.Get(i).Message())
	}
}

func (r *QueryAnomaliesResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(queryAnomaliesResponseDesc)
	if r != nil {
		for i := range r.Anomalies {
			appendMessage(m, "anomalies", r.Anomalies[i].toProto())
		}
	}
	return m
}

func (r *QueryAnomaliesResponse) fromProto(m protoreflect.Message) {
	r.Anomalies = decodeAnomalies(m)
}

func (r *ListMetersResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(listMetersResponseDesc)
	if r != nil {
		list := m.Mutable(field(m, "meter_ids")).List()
		for _, id := range r.MeterIDs {
			list.Append(protoreflect.ValueOfString(id))
		}
	}
	return m
}

func (r *ListMetersResponse) fromProto(m protoreflect.Message) {
	list := m.Get(field(m, "meter_ids")).List()
	r.MeterIDs = make([]string, list.Len())
	for i := range r.MeterIDs {
		r.MeterIDs[i] = list.Get(i).String()
	}
}

func decodeAnomalies(m protoreflect.Message) []Anomaly {
	list := m.Get(field(m, "anomalies")).List()
	out := make([]Anomaly, list.Len())
	for i := range out {
		out[i].fromProto(list.Get(i).Message())
	}
	return out
}

func field(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

func setString(m protoreflect.Message, name protoreflect.Name, s string) {
	if s != "" {
		m.Set(field(m, name), protoreflect.ValueOfString(s))
	}
}

func getString(m protoreflect.Message, name protoreflect.Name) string {
	return m.Get(field(m, name)).String()
}

func setTime(m protoreflect.Message, name protoreflect.Name, t *time.Time) {
	if t != nil {
		m.Set(field(m, name), protoreflect.ValueOfMessage(timestamppb.New(*t).ProtoReflect()))
	}
}

// getTime reads a google.protobuf.Timestamp field. Decoded values are
// dynamic messages, so the fields are read by name.
func getTime(m protoreflect.Message, name protoreflect.Name) *time.Time {
	fd := field(m, name)
	if !m.Has(fd) {
		return nil
	}
	ts := m.Get(fd).Message()
	fields := ts.Descriptor().Fields()
	t := (&timestamppb.Timestamp{
		Seconds: ts.Get(fields.ByName("seconds")).Int(),
		Nanos:   int32(ts.Get(fields.ByName("nanos")).Int()),
	}).AsTime()
	return &t
}

func setDouble(m protoreflect.Message, name protoreflect.Name, v *float64) {
	if v != nil {
		m.Set(field(m, name), protoreflect.ValueOfMessage(wrapperspb.Double(*v).ProtoReflect()))
	}
}

func getDouble(m protoreflect.Message, name protoreflect.Name) *float64 {
	fd := field(m, name)
	if !m.Has(fd) {
		return nil
	}
	w := m.Get(fd).Message()
	v := w.Get(w.Descriptor().Fields().ByName("value")).Float()
	return &v
}

func appendMessage(m protoreflect.Message, name protoreflect.Name, item *dynamicpb.Message) {
	m.Mutable(field(m, name)).List().Append(protoreflect.ValueOfMessage(item))
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
