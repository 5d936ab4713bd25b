package badgerstore

import "errors"

var (
	// ErrTradeKeyAlreadyExists ...
	ErrTradeKeyAlreadyExists = errors.New("trade key already exists for order")
	// ErrTradeKeyIndexReused ...
	ErrTradeKeyIndexReused = errors.New("trade key index already allocated")
)
