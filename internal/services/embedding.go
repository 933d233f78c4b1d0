package services

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func encodeEmbedding(vec []float32) datatypes.JSON {
	if len(vec) == 0 {
		return nil
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func decodeEmbedding(raw datatypes.JSON) ([]float32, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}
