// Package shape is the declaration-shape input of descgraph: the
// syntactic view of classes, functions and properties that the resolver
// turns into descriptors. Shapes are read from YAML files.
//
// A file looks like
//
//	package: demo
//	classes:
//	  - name: Box
//	    modality: open
//	    typeParameters: [{name: T}]
//	    functions:
//	      - {name: get, returns: T}
//	  - name: IntBox
//	    supertypes: ["Box<Int>"]
//
// Type references use the usual surface syntax: "Box<out T>", "String?",
// "List<*>".
package shape
