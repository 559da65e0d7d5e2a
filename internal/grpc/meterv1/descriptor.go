package meterv1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ProtoFile is the path the service descriptor is registered under.
const ProtoFile = "meterwatch/v1/meter.proto"

// File describes meterwatch/v1/meter.proto, equivalent to:
//
//	syntax = "proto3";
//	package meterwatch.v1;
//
//	message Reading {
//	  string meter_id = 1;
//	  google.protobuf.Timestamp timestamp = 2;
//	  google.protobuf.DoubleValue kwh = 3;
//	}
//	message Anomaly { same fields as Reading }
//	message SubmitReadingRequest { Reading reading = 1; }
//	message SubmitReadingResponse { repeated Anomaly anomalies = 1; }
//	message RangeRequest {
//	  string meter_id = 1;
//	  google.protobuf.Timestamp start = 2;
//	  google.protobuf.Timestamp end = 3;
//	}
//	message QueryReadingsResponse { repeated Reading readings = 1; }
//	message QueryAnomaliesResponse { repeated Anomaly anomalies = 1; }
//	message ListMetersResponse { repeated string meter_ids = 1; }
//
//	service MeterService {
//	  rpc SubmitReading(SubmitReadingRequest) returns (SubmitReadingResponse);
//	  rpc QueryReadings(RangeRequest) returns (QueryReadingsResponse);
//	  rpc QueryAnomalies(RangeRequest) returns (QueryAnomaliesResponse);
//	  rpc ListMeters(google.protobuf.Empty) returns (ListMetersResponse);
//	}
var File protoreflect.FileDescriptor

var (
	readingDesc                protoreflect.MessageDescriptor
	anomalyDesc                protoreflect.MessageDescriptor
	submitReadingRequestDesc   protoreflect.MessageDescriptor
	submitReadingResponseDesc  protoreflect.MessageDescriptor
	rangeRequestDesc           protoreflect.MessageDescriptor
	queryReadingsResponseDesc  protoreflect.MessageDescriptor
	queryAnomaliesResponseDesc protoreflect.MessageDescriptor
	listMetersResponseDesc     protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(fileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("meterv1: build %s: %v", ProtoFile, err))
	}
	File = fd

	msgs := fd.Messages()
	readingDesc = msgs.ByName("Reading")
	anomalyDesc = msgs.ByName("Anomaly")
	submitReadingRequestDesc = msgs.ByName("SubmitReadingRequest")
	submitReadingResponseDesc = msgs.ByName("SubmitReadingResponse")
	rangeRequestDesc = msgs.ByName("RangeRequest")
	queryReadingsResponseDesc = msgs.ByName("QueryReadingsResponse")
	queryAnomaliesResponseDesc = msgs.ByName("QueryAnomaliesResponse")
	listMetersResponseDesc = msgs.ByName("ListMetersResponse")
}

func typeName(d protoreflect.Descriptor) string {
	return "." + string(d.FullName())
}

func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	var (
		timestamp = typeName((&timestamppb.Timestamp{}).ProtoReflect().Descriptor())
		double    = typeName((&wrapperspb.DoubleValue{}).ProtoReflect().Descriptor())
		empty     = typeName((&emptypb.Empty{}).ProtoReflect().Descriptor())
	)
	str := descriptorpb.FieldDescriptorProto_TYPE_STRING

	meterFields := func() []*descriptorpb.FieldDescriptorProto {
		return []*descriptorpb.FieldDescriptorProto{
			scalarField("meter_id", 1, str),
			messageField("timestamp", 2, timestamp),
			messageField("kwh", 3, double),
		}
	}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(ProtoFile),
		Package: proto.String("meterwatch.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			timestamppb.File_google_protobuf_timestamp_proto.Path(),
			wrapperspb.File_google_protobuf_wrappers_proto.Path(),
			emptypb.File_google_protobuf_empty_proto.Path(),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("Reading", meterFields()...),
			message("Anomaly", meterFields()...),
			message("SubmitReadingRequest", messageField("reading", 1, ".meterwatch.v1.Reading")),
			message("SubmitReadingResponse", repeated(messageField("anomalies", 1, ".meterwatch.v1.Anomaly"))),
			message("RangeRequest",
				scalarField("meter_id", 1, str),
				messageField("start", 2, timestamp),
				messageField("end", 3, timestamp),
			),
			message("QueryReadingsResponse", repeated(messageField("readings", 1, ".meterwatch.v1.Reading"))),
			message("QueryAnomaliesResponse", repeated(messageField("anomalies", 1, ".meterwatch.v1.Anomaly"))),
			message("ListMetersResponse", repeated(scalarField("meter_ids", 1, str))),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("MeterService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("SubmitReading", ".meterwatch.v1.SubmitReadingRequest", ".meterwatch.v1.SubmitReadingResponse"),
				method("QueryReadings", ".meterwatch.v1.RangeRequest", ".meterwatch.v1.QueryReadingsResponse"),
				method("QueryAnomalies", ".meterwatch.v1.RangeRequest", ".meterwatch.v1.QueryAnomaliesResponse"),
				method("ListMeters", empty, ".meterwatch.v1.ListMetersResponse"),
			},
		}},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/tejusbharadwaj/meterwatch/internal/grpc/meterv1"),
		},
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func scalarField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func messageField(name string, number int32, typ string) *descriptorpb.FieldDescriptorProto {
	f := scalarField(name, number, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	f.TypeName = proto.String(typ)
	return f
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func method(name, input, output string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(input),
		OutputType: proto.String(output),
	}
}
