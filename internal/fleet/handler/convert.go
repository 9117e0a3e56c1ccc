package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct renders v through its JSON tags so the wire shape matches the
// HTTP projection.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func wrap(key string, v interface{}) (*structpb.Struct, error) {
	return toStruct(map[string]interface{}{key: v})
}

// intField reads an integral number, accepting numeric strings.
func intField(in *structpb.Struct, key string) (int64, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, false
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return int64(f), true
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(k.StringValue), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func floatField(in *structpb.Struct, key string) (float64, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, false
	}
	var f float64
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f = k.NumberValue
	case *structpb.Value_StringValue:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(k.StringValue), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringField(in *structpb.Struct, key string) string {
	return strings.TrimSpace(in.GetFields()[key].GetStringValue())
}

func robotIDField(in *structpb.Struct) (model.RobotID, error) {
	n, ok := intField(in, "robot_id")
	if !ok || n <= 0 {
		return 0, apperror.InvalidIdentifier(fmt.Sprint(in.GetFields()["robot_id"].AsInterface()))
	}
	return model.RobotID(n), nil
}

func quantityField(in *structpb.Struct, key string) (int, error) {
	n, ok := intField(in, key)
	if !ok || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("%w: %s", apperror.ErrInvalidQuantity, key)
	}
	return int(n), nil
}
