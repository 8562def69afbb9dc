package submission

// Document é o documento de introdução de mercadorias em circulação.
// Os nomes JSON seguem o formato esperado pelo registro.
type Document struct {
	Description     Description `json:"description"`
	DocID           string      `json:"doc_id"`
	DocStatus       string      `json:"doc_status"`
	DocType         string      `json:"doc_type"`
	ImportRequest   bool        `json:"importRequest"`
	ParticipantInn  string      `json:"participant_inn"`
	ProducerInn     string      `json:"producer_inn"`
	ProductionDate  string      `json:"production_date"`
	ProductionType  string      `json:"production_type"`
	Products        []Product   `json:"products"`
	RegDate         string      `json:"reg_date"`
	RegNumber       string      `json:"reg_number"`
}

type Product struct {
	CertificateDocument       string `json:"certificate_document"`
	CertificateDocumentDate   string `json:"certificate_document_date"`
	CertificateDocumentNumber string `json:"certificate_document_number"`
	OwnerInn                  string `json:"owner_inn"`
	ProducerInn               string `json:"producer_inn"`
	ProductionDate            string `json:"production_date"`
	TnvedCode                 string `json:"tnved_code"`
	UitCode                   string `json:"uit_code"`
	UituCode                  string `json:"uitu_code"`
}

type Description struct {
	ParticipantInn string `json:"participantInn"`
}

// DocumentFields agrupa os campos de NewDocument para evitar uma lista longa de strings posicionais.
type DocumentFields struct {
	DocID          string
	DocStatus      string
	DocType        string
	ImportRequest  bool
	ParticipantInn string
	ProducerInn    string
	ProductionDate string
	ProductionType string
	Products       []Product
	RegDate        string
	RegNumber      string
}

// NewDocument monta um Document; a descrição recebe o INN do participante.
// Products é copiado para que o Document não compartilhe o slice do chamador.
func NewDocument(f DocumentFields) Document {
	var products []Product
	if f.Products != nil {
		products = append([]Product(nil), f.Products...)
	}
	return Document{
		Description:    Description{ParticipantInn: f.ParticipantInn},
		DocID:          f.DocID,
		DocStatus:      f.DocStatus,
		DocType:        f.DocType,
		ImportRequest:  f.ImportRequest,
		ParticipantInn: f.ParticipantInn,
		ProducerInn:    f.ProducerInn,
		ProductionDate: f.ProductionDate,
		ProductionType: f.ProductionType,
		Products:       products,
		RegDate:        f.RegDate,
		RegNumber:      f.RegNumber,
	}
}
