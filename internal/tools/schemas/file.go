package schemas

// RegisterFileTools registers the file tool schemas.
func RegisterFileTools(registry *Registry) {
	read := func(name string) *Schema {
		return NewSchema(name, "Read a text file; HTML is converted to Markdown").
			AddParam("path", "string", "Absolute path, or relative to the working directory", true).
			Primary("path").
			Build()
	}
	registry.Register(read("file_read"))
	registry.Register(read("read_file"))

	registry.Register(NewSchema("file_write", "Write content to a file in the application output directory").
		AddParam("filename", "string", "File name relative to the output directory", true).
		AddParam("content", "string", "Content to write", false).
		Primary("content").
		Build())

	registry.Register(NewSchema("file_search", "Find files and folders whose name contains the query").
		AddParam("query", "string", "Case-insensitive name fragment", true).
		AddParam("search_path", "string", "Directory to search (defaults to the home directory)", false).
		AddParam("max_depth", "integer", "Maximum directory depth", false).
		AddParam("max_results", "integer", "Maximum number of results", false).
		Primary("query").
		Build())
}
