package chat

import "github.com/iksnae/modular-chat/internal/gateway"

// Labels holds the user-facing strings of one locale.
type Labels struct {
	DefaultTitle     string
	UserMeta         string
	StepsFormat      string // takes the step count
	ErrorPrefix      string
	NoChats          string
	NoMemories       string
	NoDocuments      string
	SendingDocuments string
	IndexedFormat    string // takes the document count
	IndexError       string
	Connected        string
	Waiting          string
	RerouteFormat    string // takes the session title
	ExportedFormat   string // takes the file path
	QuickHello       string
	QuickRAG         string
	QuickTool        string
	DroppedNote      string

	// Failure messages for backend errors that carry no body
	RequestFailed      string
	MemoryFailed       string
	DocumentsFailed    string
	BackendUnreachable string
}

// DefaultLocale is used when the configured locale is unknown.
const DefaultLocale = "en"

var labelsByLocale = map[string]Labels{
	"en": {
		DefaultTitle:     "New chat",
		UserMeta:         "You",
		StepsFormat:      "Steps: %d",
		ErrorPrefix:      "Error: ",
		NoChats:          "No chats.",
		NoMemories:       "No memories.",
		NoDocuments:      "No documents to send.",
		SendingDocuments: "Sending...",
		IndexedFormat:    "Indexed: %d",
		IndexError:       "Error indexing documents.",
		Connected:        "Connected to backend",
		Waiting:          "Waiting for reply...",
		RerouteFormat:    "Reply saved to %q",
		ExportedFormat:   "Exported to %s",
		QuickHello:       "Hi! What can you do?",
		QuickRAG:         "Search the vector store for relevant information.",
		QuickTool:        `USE_TOOL:external_api_mock {"resource":"status"}`,
		DroppedNote:      "Reply discarded, its chat was deleted",

		RequestFailed:      "Request failed",
		MemoryFailed:       "Failed to load memory",
		DocumentsFailed:    "Failed to add documents",
		BackendUnreachable: "Backend unreachable",
	},
	"pt": {
		DefaultTitle:     "Novo chat",
		UserMeta:         "Você",
		StepsFormat:      "Passos: %d",
		ErrorPrefix:      "Erro: ",
		NoChats:          "Sem chats.",
		NoMemories:       "Sem memórias.",
		NoDocuments:      "Nenhum documento para enviar.",
		SendingDocuments: "Enviando...",
		IndexedFormat:    "Indexados: %d",
		IndexError:       "Erro ao indexar documentos.",
		Connected:        "Conectado ao backend",
		Waiting:          "Aguardando resposta...",
		RerouteFormat:    "Resposta salva em %q",
		ExportedFormat:   "Exportado para %s",
		QuickHello:       "Olá! O que você pode fazer?",
		QuickRAG:         "Busque informações relevantes na base vetorial.",
		QuickTool:        `USE_TOOL:external_api_mock {"resource":"status"}`,
		DroppedNote:      "Resposta descartada, o chat foi excluído",

		RequestFailed:      "Falha na requisição",
		MemoryFailed:       "Falha ao carregar memória",
		DocumentsFailed:    "Falha ao adicionar documentos",
		BackendUnreachable: "Backend inacessível",
	},
}

// GatewayMessages returns the failure messages to hand to gateway.WithDefaultMessages.
func (l Labels) GatewayMessages() map[string]string {
	return map[string]string{
		gateway.OpChat:      l.RequestFailed,
		gateway.OpMemory:    l.MemoryFailed,
		gateway.OpDocuments: l.DocumentsFailed,
		gateway.OpPing:      l.BackendUnreachable,
	}
}

// LabelsFor returns the labels of locale, falling back to DefaultLocale.
// ok reports whether locale was known.
func LabelsFor(locale string) (Labels, bool) {
	if l, ok := labelsByLocale[locale]; ok {
		return l, true
	}
	return labelsByLocale[DefaultLocale], false
}
