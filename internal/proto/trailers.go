package proto

import "odinflash/internal/odinerr"

// withPostReadTrailer runs a read-oriented sub-exchange and then
// performs one additional zero-length bulk IN, as the device requires
// after the PIT part loop. Expressed as a higher-order wrapper so the
// device quirk is localized here instead of threaded through every
// call site.
func withPostReadTrailer[T any](t Transport, f func() (T, error)) (T, error) {
	result, err := f()
	if err != nil {
		var zero T
		return zero, err
	}
	if _, err := t.Read(nil); err != nil {
		var zero T
		return zero, odinerr.Wrap(odinerr.KindUSB, "post-read trailer", err)
	}
	return result, nil
}

// withPostWriteTrailer runs a write-oriented sub-exchange (one file
// chunk plus its ack) and then performs one additional zero-length
// bulk OUT.
func withPostWriteTrailer(t Transport, f func() error) error {
	if err := f(); err != nil {
		return err
	}
	if _, err := t.Write(nil); err != nil {
		return odinerr.Wrap(odinerr.KindUSB, "post-write trailer", err)
	}
	return nil
}
