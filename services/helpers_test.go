package services

import stderrors "errors"

func stderr(msg string) error {
	return stderrors.New(msg)
}
