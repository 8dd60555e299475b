package updater

type HarukiActUpdaterPayload struct {
	Server string   `json:"server"`
	Names  []string `json:"names,omitempty"`
}

type HarukiActUpdaterResult struct {
	Server    string   `json:"server"`
	Processed []string `json:"processed"`
	Unchanged []string `json:"unchanged"`
	Filtered  []string `json:"filtered"`
	Failed    []string `json:"failed"`
	Exported  []string `json:"exported"`
}
