package scanner

// CodeDependency is the dependency record for one readable component source file.
type CodeDependency struct {
	FilePath      string   `json:"file_path" yaml:"file_path"`
	Imports       []string `json:"imports" yaml:"imports"`
	StoreUsage    []string `json:"store_usage" yaml:"store_usage"`
	ComponentName string   `json:"component_name" yaml:"component_name"`
}

// AnalysisResult is the report produced by Analyze.
// TotalFiles counts every qualifying file, including the ones that could not be read.
type AnalysisResult struct {
	Dependencies []CodeDependency `json:"dependencies" yaml:"dependencies"`
	TotalFiles   int              `json:"total_files" yaml:"total_files"`
}

// Unreadable returns how many qualifying files were counted but produced no dependency entry.
func (r *AnalysisResult) Unreadable() int {
	return r.TotalFiles - len(r.Dependencies)
}

// FindComponent returns the first dependency whose component name matches.
func (r *AnalysisResult) FindComponent(name string) (CodeDependency, bool) {
	for _, d := range r.Dependencies {
		if d.ComponentName == name {
			return d, true
		}
	}
	return CodeDependency{}, false
}

// StoreReaders returns the dependencies that read the given store field.
func (r *AnalysisResult) StoreReaders(field string) []CodeDependency {
	var readers []CodeDependency
	for _, d := range r.Dependencies {
		for _, f := range d.StoreUsage {
			if f == field {
				readers = append(readers, d)
				break
			}
		}
	}
	return readers
}
