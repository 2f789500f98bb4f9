package obo

// Namespaces of the vocabularies found in OBO ontology documents.
const (
	RDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS     = "http://www.w3.org/2000/01/rdf-schema#"
	OWL      = "http://www.w3.org/2002/07/owl#"
	XSD      = "http://www.w3.org/2001/XMLSchema#"
	DC       = "http://purl.org/dc/elements/1.1/"
	DCTerms  = "http://purl.org/dc/terms/"
	OBO      = "http://purl.obolibrary.org/obo/"
	OBOInOwl = "http://www.geneontology.org/formats/oboInOwl#"
)

// Full IRIs read by the metadata extractor and the relations dictionary.
const (
	RDFType         = RDF + "type"
	RDFSLabel       = RDFS + "label"
	OWLOntology     = OWL + "Ontology"
	OWLVersionIRI   = OWL + "versionIRI"
	OWLVersionInfo  = OWL + "versionInfo"
	OWLDeprecated   = OWL + "deprecated"
	DCTitle         = DC + "title"
	DCDescription   = DC + "description"
	DCTermsTitle    = DCTerms + "title"
	DCTermsDesc     = DCTerms + "description"
	DCTermsLicense  = DCTerms + "license"
	RootTerm        = OBO + "IAO_0000700"
	Definition      = OBO + "IAO_0000115"
	HasExactSynonym = OBOInOwl + "hasExactSynonym"
)

// Local names of the predicates and classes that shape anonymous
// (blank-node) structures.
const (
	Type           = "type"
	SubClassOf     = "subClassOf"
	OnProperty     = "onProperty"
	SomeValuesFrom = "someValuesFrom"

	AnnotatedSource   = "annotatedSource"
	AnnotatedProperty = "annotatedProperty"
	AnnotatedTarget   = "annotatedTarget"

	Axiom       = "Axiom"
	Restriction = "Restriction"
)

// Attribute names that mark a vertex as retired from its vocabulary.
const (
	DeprecatedAttribute = "deprecated"
	LabelAttribute      = "label"
)
