package assets

// UploadOutcome reports one file of a batch upload. Failed files keep their
// slot so callers can match outcomes to inputs and decide their own
// partial-success policy.
type UploadOutcome struct {
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	AssetID  int64  `json:"asset_id,omitempty"`
	Err      error  `json:"-"`
}
