package models

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultSeparator    = " "
	DefaultDocsDir      = "./docs"
	DefaultModel        = "gemini-pro"

	ExtPDF  = ".pdf"
	ExtTXT  = ".txt"
	ExtDOCX = ".docx"
	ExtXLSX = ".xlsx"

	SheetHeading = "## Sheet: %s\n"

	EmptyCorpusDetail = "No valid files found in docs folder."
)

var (
	// PromptTemplate receives the joined context and the user query
	PromptTemplate = "Context: %s\n\nUser Query: %s"

	SupportedExtensions = []string{ExtPDF, ExtTXT, ExtDOCX, ExtXLSX}
)
