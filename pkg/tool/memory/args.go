package memory

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
)

// decodeArgs unmarshals tool arguments into dst. Absent arguments decode as
// an empty object.
func decodeArgs(args json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	if err := json.Unmarshal(trimmed, dst); err != nil {
		return goerr.Wrap(err, "invalid arguments", goerr.T(model.ErrTagValidation))
	}
	return nil
}

func requireString(name string, v *string) (string, error) {
	if v == nil {
		return "", goerr.New(name+" is required",
			goerr.V("field", name),
			goerr.T(model.ErrTagValidation))
	}
	return *v, nil
}

func userIDOf(v *string) model.UserID {
	if v == nil {
		return ""
	}
	return model.UserID(*v)
}
