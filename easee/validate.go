package easee

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func DecodeValidateBody(resp *Response, o interface{}) error {
	if err := resp.Decode(o); err != nil {
		return err
	}
	return validate.Struct(o)
}

func decodeValidateList[T any](resp *Response) ([]T, error) {
	var list []T
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	for i := range list {
		if err := validate.Struct(&list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}
