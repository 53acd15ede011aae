package study

import (
	"encoding/json"
	"time"
)

// Durations go over the wire as float milliseconds, the unit stored trial
// rows and exports use.

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
func fromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func (r TrialRecord) MarshalJSON() ([]byte, error) {
	type plain TrialRecord
	return json.Marshal(struct {
		plain
		MovementTimeMS    float64 `json:"movementTimeMs"`
		AcquisitionTimeMS float64 `json:"acquisitionTimeMs"`
	}{plain(r), millis(r.MovementTime), millis(r.AcquisitionTime)})
}

func (r *TrialRecord) UnmarshalJSON(b []byte) error {
	type plain TrialRecord
	aux := struct {
		*plain
		MovementTimeMS    float64 `json:"movementTimeMs"`
		AcquisitionTimeMS float64 `json:"acquisitionTimeMs"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.MovementTime = fromMillis(aux.MovementTimeMS)
	r.AcquisitionTime = fromMillis(aux.AcquisitionTimeMS)
	return nil
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		TotalTimeMS float64 `json:"totalTimeMs"`
	}{plain(s), millis(s.TotalTime)})
}

func (s *Summary) UnmarshalJSON(b []byte) error {
	type plain Summary
	aux := struct {
		*plain
		TotalTimeMS float64 `json:"totalTimeMs"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.TotalTime = fromMillis(aux.TotalTimeMS)
	return nil
}

func (s SessionState) MarshalJSON() ([]byte, error) {
	type plain SessionState
	return json.Marshal(struct {
		plain
		ElapsedMS float64 `json:"elapsedMs"`
	}{plain(s), millis(s.Elapsed)})
}

func (s *SessionState) UnmarshalJSON(b []byte) error {
	type plain SessionState
	aux := struct {
		*plain
		ElapsedMS float64 `json:"elapsedMs"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.Elapsed = fromMillis(aux.ElapsedMS)
	return nil
}
