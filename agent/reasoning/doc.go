/*
包 reasoning 提供固定三步的推理链。

[Reasoner.Reason] 依次生成 analysis（置信度 0.8）、synthesis（0.7）、
evaluation（0.75）三个步骤，结果置信度为 0.75。每条 [Chain] 都会保留
在历史中，并实现评估所需的 Artifact 方法，评估时可以追加
correction_application 步骤。
*/
package reasoning
