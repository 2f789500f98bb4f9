// Package catalog provides the predicates used to describe loaded ontologies
// when they are published to the knowledge graph.
//
// Predicates use the three-level dotted notation of semstreams
// (domain.category.property) and are registered in init() with IRI mappings
// back to the Dublin Core and OWL terms they mirror.
package catalog

import (
	"github.com/c360studio/ontokn/vocabulary/obo"
	"github.com/c360studio/semstreams/vocabulary"
)

// Namespace is the base IRI for catalog terms that have no standard mapping.
const Namespace = "https://ontokn.dev/catalog/"

// Ontology descriptor predicates.
const (
	// OntologyTitle is the dc:title of the ontology header.
	OntologyTitle = "ontology.catalog.title"

	// OntologyDescription is the dc:description of the ontology header.
	OntologyDescription = "ontology.catalog.description"

	// OntologyPURL is the IRI of the owl:Ontology subject.
	OntologyPURL = "ontology.catalog.purl"

	// OntologyVersionIRI is the owl:versionIRI of the ontology header.
	OntologyVersionIRI = "ontology.catalog.version_iri"

	// OntologyVersion is the owl:versionInfo of the ontology header.
	OntologyVersion = "ontology.catalog.version"

	// OntologyRoot is the root term declared with IAO_0000700.
	OntologyRoot = "ontology.catalog.root"

	// OntologySource is the source token (file stem) of the document.
	OntologySource = "ontology.catalog.source"
)

// Load statistics predicates.
const (
	// LoadStatements is the number of distinct statements read.
	LoadStatements = "ontology.load.statements"

	// LoadFlattened is the number of statements synthesized from blank-node
	// structures.
	LoadFlattened = "ontology.load.flattened"

	// LoadUnmatched is the number of anonymous groups that matched no pattern.
	LoadUnmatched = "ontology.load.unmatched"

	// LoadRun is the identifier of the batch run that loaded the ontology.
	LoadRun = "ontology.load.run"
)

func init() {
	vocabulary.Register(OntologyTitle,
		vocabulary.WithDescription("Ontology title"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(obo.DCTitle))

	vocabulary.Register(OntologyDescription,
		vocabulary.WithDescription("Ontology description"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(obo.DCDescription))

	vocabulary.Register(OntologyPURL,
		vocabulary.WithDescription("Persistent URL of the ontology"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"purl"))

	vocabulary.Register(OntologyVersionIRI,
		vocabulary.WithDescription("Versioned IRI of the ontology release"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(obo.OWLVersionIRI))

	vocabulary.Register(OntologyVersion,
		vocabulary.WithDescription("Release version of the ontology"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(obo.OWLVersionInfo))

	vocabulary.Register(OntologyRoot,
		vocabulary.WithDescription("Root term of the ontology"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(obo.RootTerm))

	vocabulary.Register(OntologySource,
		vocabulary.WithDescription("Source token of the ontology document"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"source"))

	vocabulary.Register(LoadStatements,
		vocabulary.WithDescription("Distinct statements read from the document"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"statements"))

	vocabulary.Register(LoadFlattened,
		vocabulary.WithDescription("Statements synthesized from anonymous structures"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"flattened"))

	vocabulary.Register(LoadUnmatched,
		vocabulary.WithDescription("Anonymous groups left in place"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"unmatched"))

	vocabulary.Register(LoadRun,
		vocabulary.WithDescription("Batch run identifier"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"run"))
}
