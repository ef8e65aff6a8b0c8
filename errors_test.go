package cerberus

import (
	"errors"
	"testing"
)

func TestNewTypedError_RoundTripsKind(t *testing.T) {
	err := NewTypedError(ErrTypeL2Timeout, "farcache.get", errors.New("dial timeout"))

	kind, ok := ErrorType(err)
	if !ok {
		t.Fatal("ErrorType() ok = false, want true")
	}
	if kind != ErrTypeL2Timeout {
		t.Errorf("ErrorType() kind = %v, want ErrTypeL2Timeout", kind)
	}
}

func TestNewTypedError_RetryableClassification(t *testing.T) {
	cases := []struct {
		kind    CacheErrorType
		wantErr bool
	}{
		{ErrTypeL2Connection, true},
		{ErrTypeL2Timeout, true},
		{ErrTypeDataSource, true},
		{ErrTypeL1Error, false},
		{ErrTypeLockTimeout, false},
		{ErrTypeSerialization, false},
	}

	for _, tc := range cases {
		err := NewTypedError(tc.kind, "op", nil)
		if got := IsRetryable(err); got != tc.wantErr {
			t.Errorf("IsRetryable(%v) = %v, want %v", tc.kind, got, tc.wantErr)
		}
	}
}

func TestIsRetryable_NilAndPlainErrorsAreNotRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true, want false")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("IsRetryable(plain error) = true, want false")
	}
}

func TestErrorType_UnrecognizedErrorReturnsFalse(t *testing.T) {
	_, ok := ErrorType(errors.New("plain"))
	if ok {
		t.Error("ErrorType(plain error) ok = true, want false")
	}
}

func TestGetErrorCode_ExtractsCode(t *testing.T) {
	err := NewErrEmptyKey("facade.get")
	if got := GetErrorCode(err); got != ErrCodeEmptyKey {
		t.Errorf("GetErrorCode() = %v, want %v", got, ErrCodeEmptyKey)
	}
	if GetErrorCode(nil) != "" {
		t.Error("GetErrorCode(nil) != \"\"")
	}
}

func TestNewErrInternal_WrapsOrStandsAlone(t *testing.T) {
	wrapped := NewErrInternal("op", errors.New("cause"))
	if GetErrorCode(wrapped) != ErrCodeInternalError {
		t.Errorf("GetErrorCode(wrapped) = %v, want %v", GetErrorCode(wrapped), ErrCodeInternalError)
	}

	standalone := NewErrInternal("op", nil)
	if GetErrorCode(standalone) != ErrCodeInternalError {
		t.Errorf("GetErrorCode(standalone) = %v, want %v", GetErrorCode(standalone), ErrCodeInternalError)
	}
}

func TestNewErrPanicRecovered_CarriesPanicValue(t *testing.T) {
	err := NewErrPanicRecovered("loader.call", "boom")
	if GetErrorCode(err) != ErrCodePanicRecovered {
		t.Errorf("GetErrorCode() = %v, want %v", GetErrorCode(err), ErrCodePanicRecovered)
	}
}

func TestCacheErrorType_String(t *testing.T) {
	cases := map[CacheErrorType]string{
		ErrTypeL1Error:       "L1_ERROR",
		ErrTypeL2Connection:  "L2_CONNECTION",
		ErrTypeL2Timeout:     "L2_TIMEOUT",
		ErrTypeDataSource:    "DATASOURCE",
		ErrTypeLockTimeout:   "LOCK_TIMEOUT",
		ErrTypeSerialization: "SERIALIZATION",
		CacheErrorType(99):   "UNKNOWN",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("CacheErrorType(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
