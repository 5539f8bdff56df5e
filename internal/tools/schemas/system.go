package schemas

// RegisterSystemTools registers the system, calculator, OCR and secretary
// tool schemas.
func RegisterSystemTools(registry *Registry) {
	registry.Register(NewSchema("system_info", "Show the operating system and architecture").
		Build())

	registry.Register(NewSchema("calculator", "Evaluate an arithmetic expression").
		AddParam("expression", "string", "Expression using + - * / % and parentheses", true).
		Primary("expression").
		Build())

	registry.Register(NewSchema("ocr", "Extract text from an image").
		AddParam("image_path", "string", "Path to the image file", true).
		Primary("image_path").
		Build())

	registry.Register(NewSchema("calendar", "List today's calendar events").
		Build())

	registry.Register(NewSchema("email", "List recent email messages").
		Build())
}
