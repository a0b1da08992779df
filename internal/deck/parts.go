package deck

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"text/template"
)

// XML namespaces and relationship types of the package parts.
const (
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsC   = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
)

var partFuncs = template.FuncMap{
	"xml": func(s string) (string, error) {
		var b bytes.Buffer
		if err := xml.EscapeText(&b, []byte(s)); err != nil {
			return "", err
		}
		return b.String(), nil
	},
	"add": func(a, b int) int { return a + b },
	"num": func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) },
	"emu": func(l Length) string { return strconv.FormatInt(int64(l), 10) },
	"nsA": func() string { return nsA },
	"nsR": func() string { return nsR },
	"nsP": func() string { return nsP },
	"nsC": func() string { return nsC },
	"rel": func(kind string) string { return relNS + kind },
}

var parts = template.Must(template.New("parts").Funcs(partFuncs).Parse(partTemplates))

// partTemplates holds every package part. Whitespace between elements is
// trimmed with {{- -}} so the output stays compact.
const partTemplates = `
{{- define "contentTypes" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="xlsx" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout2.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
{{- range $i, $s := .Slides}}
<Override PartName="/ppt/slides/slide{{add $i 1}}.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>
{{- end}}
{{- range .Charts}}
<Override PartName="/ppt/charts/chart{{.Number}}.xml" ContentType="application/vnd.openxmlformats-officedocument.drawingml.chart+xml"/>
{{- end}}
<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>
<Override PartName="/ppt/presProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"/>
<Override PartName="/ppt/viewProps.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"/>
<Override PartName="/ppt/tableStyles.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
</Types>
{{- end}}

{{- define "rootRels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="{{rel "officeDocument"}}" Target="ppt/presentation.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
<Relationship Id="rId3" Type="{{rel "extended-properties"}}" Target="docProps/app.xml"/>
</Relationships>
{{- end}}

{{- define "core" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>{{xml .Title}}</dc:title>
<dc:creator>{{xml .Creator}}</dc:creator>
<dcterms:created xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:created>
<dcterms:modified xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:modified>
</cp:coreProperties>
{{- end}}

{{- define "app" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">
<Application>prism</Application>
<Slides>{{len .Slides}}</Slides>
</Properties>
{{- end}}

{{- define "presentation" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="{{nsA}}" xmlns:r="{{nsR}}" xmlns:p="{{nsP}}" saveSubsetFonts="1">
<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>
{{- if .Slides}}
<p:sldIdLst>
{{- range $i, $s := .Slides}}<p:sldId id="{{add $i 256}}" r:id="rId{{add $i 2}}"/>{{end -}}
</p:sldIdLst>
{{- end}}
<p:sldSz cx="{{emu .Width}}" cy="{{emu .Height}}" type="screen4x3"/>
<p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>
{{- end}}

{{- define "presentationRels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="{{rel "slideMaster"}}" Target="slideMasters/slideMaster1.xml"/>
{{- range $i, $s := .Slides}}
<Relationship Id="rId{{add $i 2}}" Type="{{rel "slide"}}" Target="slides/slide{{add $i 1}}.xml"/>
{{- end}}
{{- $n := len .Slides}}
<Relationship Id="rId{{add $n 2}}" Type="{{rel "presProps"}}" Target="presProps.xml"/>
<Relationship Id="rId{{add $n 3}}" Type="{{rel "viewProps"}}" Target="viewProps.xml"/>
<Relationship Id="rId{{add $n 4}}" Type="{{rel "theme"}}" Target="theme/theme1.xml"/>
<Relationship Id="rId{{add $n 5}}" Type="{{rel "tableStyles"}}" Target="tableStyles.xml"/>
</Relationships>
{{- end}}

{{- define "presProps" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentationPr xmlns:a="{{nsA}}" xmlns:r="{{nsR}}" xmlns:p="{{nsP}}"/>
{{- end}}

{{- define "viewProps" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:viewPr xmlns:a="{{nsA}}" xmlns:r="{{nsR}}" xmlns:p="{{nsP}}"/>
{{- end}}

{{- define "tableStyles" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:tblStyleLst xmlns:a="{{nsA}}" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>
{{- end}}

{{- define "groupShape" -}}
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
{{- end}}

{{- define "master" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster xmlns:a="{{nsA}}" xmlns:r="{{nsR}}" xmlns:p="{{nsP}}">
<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>
{{- template "groupShape"}}
<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
<p:spPr><a:xfrm><a:off x="457200" y="274638"/><a:ext cx="8229600" cy="1143000"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>
<p:txBody><a:bodyPr anchor="ctr"/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>
</p:spTree></p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/><p:sldLayoutId id="2147483650" r:id="rId2"/></p:sldLayoutIdLst>
<p:txStyles>
<p:titleStyle><a:lvl1pPr algn="ctr"><a:defRPr sz="3600"><a:solidFill><a:schemeClr val="tx1"/></a:solidFill><a:latin typeface="+mj-lt"/></a:defRPr></a:lvl1pPr></p:titleStyle>
<p:bodyStyle><a:lvl1pPr><a:defRPr sz="2400"><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:bodyStyle>
<p:otherStyle><a:lvl1pPr><a:defRPr sz="1800"><a:latin typeface="+mn-lt"/></a:defRPr></a:lvl1pPr></p:otherStyle>
</p:txStyles>
</p:sldMaster>
{{- end}}

{{- define "masterRels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="{{rel "slideLayout"}}" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="{{rel "slideLayout"}}" Target="../slideLayouts/slideLayout2.xml"/>
<Relationship Id="rId3" Type="{{rel "theme"}}" Target="../theme/theme1.xml"/>
</Relationships>
{{- end}}

{{- define "layoutTitleOnly" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="{{nsA}}" xmlns:r="{{nsR}}" xmlns:p="{{nsP}}" type="titleOnly" preserve="1">
<p:cSld name="Title Only"><p:spTree>
{{- template "groupShape"}}
<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/>
<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>
</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>
{{- end}}

{{- define "layoutBlank" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="{{nsA}}" xmlns:r="{{nsR}}" xmlns:p="{{nsP}}" type="blank" preserve="1">
<p:cSld name="Blank"><p:spTree>
{{- template "groupShape"}}
</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>
{{- end}}

{{- define "layoutRels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="{{rel "slideMaster"}}" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>
{{- end}}

{{- define "theme" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="{{nsA}}" name="Prism">
<a:themeElements>
<a:clrScheme name="Prism">
<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>
<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>
<a:dk2><a:srgbClr val="1F497D"/></a:dk2>
<a:lt2><a:srgbClr val="EEECE1"/></a:lt2>
<a:accent1><a:srgbClr val="4F81BD"/></a:accent1>
<a:accent2><a:srgbClr val="C0504D"/></a:accent2>
<a:accent3><a:srgbClr val="9BBB59"/></a:accent3>
<a:accent4><a:srgbClr val="8064A2"/></a:accent4>
<a:accent5><a:srgbClr val="4BACC6"/></a:accent5>
<a:accent6><a:srgbClr val="F79646"/></a:accent6>
<a:hlink><a:srgbClr val="0000FF"/></a:hlink>
<a:folHlink><a:srgbClr val="800080"/></a:folHlink>
</a:clrScheme>
<a:fontScheme name="Prism">
<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>
<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>
</a:fontScheme>
<a:fmtScheme name="Prism">
<a:fillStyleLst>
<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
</a:fillStyleLst>
<a:lnStyleLst>
<a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>
<a:ln w="25400"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>
<a:ln w="38100"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>
</a:lnStyleLst>
<a:effectStyleLst>
<a:effectStyle><a:effectLst/></a:effectStyle>
<a:effectStyle><a:effectLst/></a:effectStyle>
<a:effectStyle><a:effectLst/></a:effectStyle>
</a:effectStyleLst>
<a:bgFillStyleLst>
<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
</a:bgFillStyleLst>
</a:fmtScheme>
</a:themeElements>
<a:objectDefaults/>
<a:extraClrSchemeLst/>
</a:theme>
{{- end}}

{{- define "slide" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="{{nsA}}" xmlns:r="{{nsR}}" xmlns:p="{{nsP}}">
<p:cSld><p:spTree>
{{- template "groupShape"}}
{{- if .Title}}
<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>
<p:spPr><a:xfrm><a:off x="457200" y="274638"/><a:ext cx="8229600" cy="1143000"/></a:xfrm></p:spPr>
<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>{{xml .Title}}</a:t></a:r></a:p></p:txBody></p:sp>
{{- end}}
{{- range $i, $c := .Charts}}
<p:graphicFrame>
<p:nvGraphicFramePr><p:cNvPr id="{{add $i 3}}" name="Chart {{add $i 1}}"/><p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>
<p:xfrm><a:off x="{{emu $c.X}}" y="{{emu $c.Y}}"/><a:ext cx="{{emu $c.Width}}" cy="{{emu $c.Height}}"/></p:xfrm>
<a:graphic><a:graphicData uri="{{nsC}}"><c:chart xmlns:c="{{nsC}}" xmlns:r="{{nsR}}" r:id="{{$c.RelID}}"/></a:graphicData></a:graphic>
</p:graphicFrame>
{{- end}}
</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sld>
{{- end}}

{{- define "slideRels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="{{rel "slideLayout"}}" Target="../slideLayouts/slideLayout{{.LayoutNumber}}.xml"/>
{{- range .Charts}}
<Relationship Id="{{.RelID}}" Type="{{rel "chart"}}" Target="../charts/chart{{.Number}}.xml"/>
{{- end}}
</Relationships>
{{- end}}

{{- define "chartRels" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="{{rel "package"}}" Target="../embeddings/{{.Embedding}}"/>
</Relationships>
{{- end}}

{{- define "series" -}}
<c:idx val="{{.Index}}"/><c:order val="{{.Index}}"/>
<c:tx><c:strRef><c:f>{{xml .NameRef}}</c:f><c:strCache><c:ptCount val="1"/><c:pt idx="0"><c:v>{{xml .Name}}</c:v></c:pt></c:strCache></c:strRef></c:tx>
{{- end}}

{{- define "seriesData" -}}
<c:cat><c:strRef><c:f>{{xml .CategoryRef}}</c:f><c:strCache><c:ptCount val="{{len .Categories}}"/>
{{- range $i, $v := .Categories}}<c:pt idx="{{$i}}"><c:v>{{xml $v}}</c:v></c:pt>{{end -}}
</c:strCache></c:strRef></c:cat>
<c:val><c:numRef><c:f>{{xml .ValueRef}}</c:f><c:numCache><c:formatCode>General</c:formatCode><c:ptCount val="{{len .Values}}"/>
{{- range $i, $v := .Values}}<c:pt idx="{{$i}}"><c:v>{{num $v}}</c:v></c:pt>{{end -}}
</c:numCache></c:numRef></c:val>
{{- end}}

{{- define "chart" -}}
<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<c:chartSpace xmlns:c="{{nsC}}" xmlns:a="{{nsA}}" xmlns:r="{{nsR}}">
<c:date1904 val="0"/><c:roundedCorners val="0"/>
<c:chart>
{{- if .Title}}
<c:title><c:tx><c:rich><a:bodyPr/><a:lstStyle/><a:p><a:r><a:t>{{xml .Title}}</a:t></a:r></a:p></c:rich></c:tx><c:overlay val="0"/></c:title>
<c:autoTitleDeleted val="0"/>
{{- else}}
<c:autoTitleDeleted val="1"/>
{{- end}}
<c:plotArea><c:layout/>
{{- if .Line}}
<c:lineChart><c:grouping val="standard"/><c:varyColors val="0"/>
{{- range .Series}}
<c:ser>{{template "series" .}}<c:marker><c:symbol val="none"/></c:marker>{{template "seriesData" .}}<c:smooth val="0"/></c:ser>
{{- end}}
<c:marker val="1"/><c:axId val="500000001"/><c:axId val="500000002"/></c:lineChart>
{{- else}}
<c:barChart><c:barDir val="{{.BarDir}}"/><c:grouping val="clustered"/><c:varyColors val="0"/>
{{- range .Series}}
<c:ser>{{template "series" .}}<c:invertIfNegative val="0"/>{{template "seriesData" .}}</c:ser>
{{- end}}
<c:gapWidth val="150"/><c:axId val="500000001"/><c:axId val="500000002"/></c:barChart>
{{- end}}
<c:catAx><c:axId val="500000001"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="{{.CatAxPos}}"/><c:numFmt formatCode="General" sourceLinked="1"/><c:majorTickMark val="out"/><c:minorTickMark val="none"/><c:tickLblPos val="nextTo"/><c:crossAx val="500000002"/><c:crosses val="autoZero"/><c:auto val="1"/><c:lblAlgn val="ctr"/><c:lblOffset val="100"/><c:noMultiLvlLbl val="0"/></c:catAx>
<c:valAx><c:axId val="500000002"/><c:scaling><c:orientation val="minMax"/></c:scaling><c:delete val="0"/><c:axPos val="{{.ValAxPos}}"/><c:majorGridlines/><c:numFmt formatCode="General" sourceLinked="1"/><c:majorTickMark val="out"/><c:minorTickMark val="none"/><c:tickLblPos val="nextTo"/><c:crossAx val="500000001"/><c:crosses val="autoZero"/><c:crossBetween val="between"/></c:valAx>
</c:plotArea>
{{- if .Legend}}
<c:legend><c:legendPos val="{{.Legend}}"/><c:overlay val="0"/></c:legend>
{{- end}}
<c:plotVisOnly val="1"/><c:dispBlanksAs val="gap"/>
</c:chart>
<c:externalData r:id="rId1"><c:autoUpdate val="0"/></c:externalData>
</c:chartSpace>
{{- end}}
`
